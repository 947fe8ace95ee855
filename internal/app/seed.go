package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

// seedCatalog наполняет пустой каталог демонстрационными данными витрины.
// Существующие записи не перезаписываются.
func seedCatalog(products domain.ProductRepository, collections domain.CollectionRepository, logger *log.Entry) error {
	existing, err := products.List("")
	if err != nil {
		return fmt.Errorf("check existing catalog: %w", err)
	}
	if len(existing) > 0 {
		logger.WithField("products", len(existing)).Info("catalog already populated, skipping seed")
		return nil
	}

	for _, product := range seedProducts {
		if err := products.Upsert(product); err != nil {
			return fmt.Errorf("seed product %s: %w", product.ID, err)
		}
	}
	for _, collection := range seedCollections {
		if err := collections.Upsert(collection); err != nil {
			return fmt.Errorf("seed collection %s: %w", collection.ID, err)
		}
	}

	logger.WithFields(log.Fields{
		"products":    len(seedProducts),
		"collections": len(seedCollections),
	}).Info("catalog seeded")
	return nil
}

var seedProducts = []domain.Product{
	{
		ID:          "vela-lavanda",
		Name:        "Vela de soja Lavanda",
		Price:       12500,
		Image:       "/img/vela-lavanda.jpg",
		Images:      []string{"/img/vela-lavanda.jpg", "/img/vela-lavanda-2.jpg"},
		Category:    "velas",
		Tags:        []string{"aromática", "lavanda"},
		Colors:      []string{"lila"},
		Description: "Vela artesanal de cera de soja con aceite esencial de lavanda.",
		Features:    []string{"40 horas de quemado", "mecha de algodón"},
		Rating:      4.8,
		Reviews:     112,
	},
	{
		ID:            "vela-vainilla",
		Name:          "Vela de soja Vainilla",
		Price:         11800,
		OriginalPrice: 13900,
		Image:         "/img/vela-vainilla.jpg",
		Category:      "velas",
		Tags:          []string{"aromática", "vainilla"},
		Colors:        []string{"crema"},
		Description:   "Aroma cálido de vainilla para ambientes chicos.",
		Rating:        4.6,
		Reviews:       87,
	},
	{
		ID:          "difusor-bergamota",
		Name:        "Difusor Bergamota",
		Price:       15900,
		Image:       "/img/difusor-bergamota.jpg",
		Category:    "difusores",
		Tags:        []string{"cítrico"},
		Description: "Difusor de varillas con esencia de bergamota, 250 ml.",
		Rating:      4.7,
		Reviews:     64,
	},
	{
		ID:          "manta-crudo",
		Name:        "Manta tejida Crudo",
		Price:       46000,
		Image:       "/img/manta-crudo.jpg",
		Category:    "textiles",
		Tags:        []string{"invierno"},
		Colors:      []string{"crudo", "gris"},
		Description: "Manta de algodón tejida a telar, 120x180 cm.",
		Rating:      4.9,
		Reviews:     41,
	},
	{
		ID:          "almohadon-terracota",
		Name:        "Almohadón Terracota",
		Price:       18500,
		Image:       "/img/almohadon-terracota.jpg",
		Category:    "textiles",
		Colors:      []string{"terracota", "mostaza"},
		Description: "Almohadón de lino lavado con relleno incluido, 50x50 cm.",
		Rating:      4.5,
		Reviews:     53,
	},
	{
		ID:          "taza-ceramica",
		Name:        "Taza de cerámica esmaltada",
		Price:       9800,
		Image:       "/img/taza-ceramica.jpg",
		Category:    "deco",
		Colors:      []string{"verde", "azul"},
		Description: "Taza torneada a mano con esmalte reactivo.",
		Rating:      4.4,
		Reviews:     129,
	},
}

var seedCollections = []domain.Collection{
	{
		ID:          "noche-de-calma",
		Name:        "Noche de calma",
		Tagline:     "Ritual aromático para cerrar el día",
		Description: "Velas y difusor pensados para combinar entre sí.",
		CoverImage:  "/img/col-noche-de-calma.jpg",
		AccentColor: "#b7a6d4",
		ProductIDs:  []string{"vela-lavanda", "vela-vainilla", "difusor-bergamota"},
		Tags:        []string{"aromas"},
	},
	{
		ID:          "living-calido",
		Name:        "Living cálido",
		Tagline:     "Textiles que abrigan el espacio",
		Description: "Manta y almohadón en paleta tierra.",
		CoverImage:  "/img/col-living-calido.jpg",
		AccentColor: "#c97b4a",
		ProductIDs:  []string{"manta-crudo", "almohadon-terracota"},
		Tags:        []string{"textiles"},
	},
}
