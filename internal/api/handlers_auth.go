package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	AccessToken string `json:"accessToken"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}

	identity, err := s.session(r).Login(r.Context(), body.AccessToken)
	if err != nil {
		s.logger.WithError(err).Warn("login failed")
		s.writeError(w, http.StatusUnauthorized, "identity exchange failed")
		return
	}

	s.writeJSON(w, http.StatusOK, identity)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session(r).Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := s.session(r).Identity()
	if identity == nil {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s.writeJSON(w, http.StatusOK, identity)
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites := s.session(r).Favorites()
	if favorites == nil {
		favorites = []string{}
	}
	s.writeJSON(w, http.StatusOK, favorites)
}

// handleToggleFavorite переключает товар в избранном. Для анонимной сессии
// избранное недоступно.
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if sess.Identity() == nil {
		s.writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	favorites := sess.ToggleFavorite(chi.URLParam(r, "id"))
	if favorites == nil {
		favorites = []string{}
	}
	s.writeJSON(w, http.StatusOK, favorites)
}
