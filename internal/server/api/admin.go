package api

import (
	"net/http"

	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

var adminPolicy = errorPolicy{
	Name:           "admin",
	Status:         always(http.StatusForbidden),
	FallbackStatus: http.StatusInternalServerError,
	FallbackCode:   services.CodeUnknown,
}

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	var req models.AdminUserRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	info, err := h.adminService.GetUserInfo(r.Context(), req.AuthToken, req.AdminUsername, req.RequestUsername)
	if err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.UserInfoResponse{UserInfo: *info, Errors: noErrors()})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var req models.AdminUserRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	users, err := h.adminService.ListUsers(r.Context(), req.AuthToken, req.AdminUsername)
	if err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.UserListResponse{Users: users, Errors: noErrors()})
}

func (h *AdminHandler) NewUser(w http.ResponseWriter, r *http.Request) {
	var req models.NewUserRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	if _, err := h.adminService.CreateUser(r.Context(), req.AuthToken, req.AdminUsername, req.NewUserInfo); err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AdminHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	var req models.EditUserRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	if err := h.adminService.EditUser(r.Context(), req.AuthToken, req.AdminUsername, req.RequestUsername, req.UserInfo); err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AdminHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req models.AdminUserRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	if err := h.adminService.UpdateSubscription(r.Context(), req.AuthToken, req.AdminUsername, req.RequestUsername, req.SubEndDate); err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AdminHandler) DisableUser(w http.ResponseWriter, r *http.Request) {
	var req models.AdminUserRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	if err := h.adminService.DisableUser(r.Context(), req.AuthToken, req.AdminUsername, req.RequestUsername); err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AdminHandler) GetVineyard(w http.ResponseWriter, r *http.Request) {
	var req models.VineyardRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	info, err := h.adminService.GetVineyardInfo(r.Context(), req.AuthToken, req.VineyardID)
	if err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.VineyardInfoResponse{VineyardInfo: *info, Errors: noErrors()})
}

func (h *AdminHandler) ListVineyards(w http.ResponseWriter, r *http.Request) {
	var req models.VineyardRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	vineyards, err := h.adminService.ListVineyards(r.Context(), req.AuthToken)
	if err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.VineyardListResponse{Vineyards: vineyards, Errors: noErrors()})
}

func (h *AdminHandler) NewVineyard(w http.ResponseWriter, r *http.Request) {
	var req models.NewVineyardRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	if _, err := h.adminService.CreateVineyard(r.Context(), req.AuthToken, req.NewVineyardInfo); err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AdminHandler) EditVineyard(w http.ResponseWriter, r *http.Request) {
	var req models.EditVineyardRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	if err := h.adminService.EditVineyard(r.Context(), req.AuthToken, req.VineyardID, req.VineyardInfo); err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AdminHandler) DisableVineyard(w http.ResponseWriter, r *http.Request) {
	var req models.VineyardRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	if err := h.adminService.DisableVineyard(r.Context(), req.AuthToken, req.VineyardID); err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondOK(w)
}

func (h *AdminHandler) NewNode(w http.ResponseWriter, r *http.Request) {
	var req models.NewNodeRequest

	if err := decodeJSON(r, &req); err != nil {
		adminPolicy.badBody(w, err)
		return
	}

	if _, err := h.adminService.RegisterNode(r.Context(), req.AuthToken, req); err != nil {
		adminPolicy.respond(w, err)
		return
	}

	respondOK(w)
}
