package api

import (
	"net/http"

	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

var (
	vineyardPolicy = errorPolicy{
		Name:           "vineyard",
		Status:         authOr(http.StatusBadRequest),
		FallbackStatus: http.StatusBadRequest,
		FallbackCode:   services.CodeVineyardUnknown,
	}
	envDataPolicy = errorPolicy{
		Name:           "env data",
		Status:         authOr(http.StatusBadRequest),
		FallbackStatus: http.StatusBadRequest,
		FallbackCode:   services.CodeEnvDataUnknown,
	}
	hubDataPolicy = errorPolicy{
		Name: "hub data",
		Status: func(e *services.Error) int {
			if e.Code == services.CodeEnvKeyInvalid {
				return http.StatusForbidden
			}
			return http.StatusBadRequest
		},
		FallbackStatus: http.StatusBadRequest,
		FallbackCode:   services.CodeUnknown,
	}
)

type EnvHandler struct {
	envService *services.EnvService
}

func NewEnvHandler(envService *services.EnvService) *EnvHandler {
	return &EnvHandler{
		envService: envService,
	}
}

func (h *EnvHandler) Vineyard(w http.ResponseWriter, r *http.Request) {
	var req models.VineyardRequest

	if err := decodeJSON(r, &req); err != nil {
		vineyardPolicy.badBody(w, err)
		return
	}

	info, err := h.envService.GetVineyard(r.Context(), req.AuthToken, req.VineyardID)
	if err != nil {
		vineyardPolicy.respond(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.VineyardInfoResponse{VineyardInfo: *info, Errors: noErrors()})
}

func (h *EnvHandler) EnvData(w http.ResponseWriter, r *http.Request) {
	var req models.EnvDataRequest

	if err := decodeJSON(r, &req); err != nil {
		envDataPolicy.badBody(w, err)
		return
	}

	points, err := h.envService.GetEnvData(r.Context(), req.AuthToken, req.VineyardID, req.EnvVariable)
	if err != nil {
		envDataPolicy.respond(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.EnvDataResponse{EnvData: points, Errors: noErrors()})
}

func (h *EnvHandler) HubData(w http.ResponseWriter, r *http.Request) {
	var req models.HubDataRequest

	if err := decodeJSON(r, &req); err != nil {
		// A body that does not parse is a malformed batch
		hubDataPolicy.respond(w, services.ErrEnvDataInvalid)
		return
	}

	if err := h.envService.IngestBatch(r.Context(), req); err != nil {
		hubDataPolicy.respond(w, err)
		return
	}

	respondOK(w)
}
