package api

import (
	"net/http"

	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

var (
	passwordChangePolicy = errorPolicy{
		Name: "password change",
		Status: func(e *services.Error) int {
			if e.Kind == services.KindAuth || e.Kind == services.KindLogin {
				return http.StatusForbidden
			}
			return http.StatusBadRequest
		},
		FallbackStatus: http.StatusInternalServerError,
		FallbackCode:   services.CodeUnknown,
	}
	passwordResetPolicy = errorPolicy{
		Name: "password reset",
		Status: func(e *services.Error) int {
			if e.Code == services.CodeEmailError {
				return http.StatusInternalServerError
			}
			return http.StatusForbidden
		},
		FallbackStatus: http.StatusInternalServerError,
		FallbackCode:   services.CodeUnknown,
	}
	emailChangePolicy = errorPolicy{
		Name: "email change",
		Status: func(e *services.Error) int {
			switch {
			case e.Code == services.CodeAuthNoToken, e.Code == services.CodeEmailInvalid:
				return http.StatusBadRequest
			case e.Kind == services.KindAuth:
				return http.StatusForbidden
			default:
				return http.StatusBadRequest
			}
		},
		FallbackStatus: http.StatusInternalServerError,
		FallbackCode:   services.CodeChangeEmailUnknown,
	}
)

type AccountHandler struct {
	passwordService *services.PasswordService
	accountService  *services.AccountService
}

func NewAccountHandler(passwordService *services.PasswordService, accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{
		passwordService: passwordService,
		accountService:  accountService,
	}
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordChangeRequest

	if err := decodeJSON(r, &req); err != nil {
		passwordChangePolicy.badBody(w, err)
		return
	}

	if err := h.passwordService.ChangePassword(r.Context(), req); err != nil {
		passwordChangePolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest

	if err := decodeJSON(r, &req); err != nil {
		passwordResetPolicy.badBody(w, err)
		return
	}

	if err := h.passwordService.RequestReset(r.Context(), req.Username); err != nil {
		passwordResetPolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AccountHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req models.EmailChangeRequest

	if err := decodeJSON(r, &req); err != nil {
		emailChangePolicy.badBody(w, err)
		return
	}

	if err := h.accountService.ChangeEmail(r.Context(), req.AuthToken, req.NewEmail); err != nil {
		emailChangePolicy.respond(w, err)
		return
	}

	respondOK(w)
}
