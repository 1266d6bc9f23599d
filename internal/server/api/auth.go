package api

import (
	"net/http"

	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

var (
	loginPolicy = errorPolicy{
		Name:           "login",
		Status:         always(http.StatusForbidden),
		FallbackStatus: http.StatusForbidden,
		FallbackCode:   services.CodeLoginUnknown,
	}
	logoutPolicy = errorPolicy{
		Name:           "logout",
		Status:         always(http.StatusForbidden),
		FallbackStatus: http.StatusInternalServerError,
		FallbackCode:   services.CodeUnknown,
	}
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest

	if err := decodeJSON(r, &req); err != nil {
		loginPolicy.badBody(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		loginPolicy.respond(w, err)
		return
	}

	response := models.LoginResponse{
		AuthToken:           result.Token,
		AuthorizedVineyards: result.Vineyards,
		IsAdmin:             result.IsAdmin,
		Errors:              noErrors(),
	}

	respondJSON(w, http.StatusOK, response)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.LogoutRequest

	if err := decodeJSON(r, &req); err != nil {
		logoutPolicy.badBody(w, err)
		return
	}

	if err := h.authService.Logout(r.Context(), req.AuthToken); err != nil {
		logoutPolicy.respond(w, err)
		return
	}

	respondOK(w)
}
