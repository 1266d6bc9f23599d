package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
)

func writeJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, data)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// noErrors is the errors field of every successful response
func noErrors() models.Errors {
	return models.Errors{}
}

// errorMap renders a code with its message. Unregistered codes collapse to
// unknown.
func errorMap(code string) models.Errors {
	msg, ok := services.Message(code)
	if !ok {
		code = services.CodeUnknown
		msg, _ = services.Message(code)
	}
	return models.Errors{code: msg}
}

func respondCode(w http.ResponseWriter, statusCode int, code string) {
	respondJSON(w, statusCode, models.StatusResponse{Errors: errorMap(code)})
}

func respondOK(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, models.StatusResponse{Errors: noErrors()})
}

// errorPolicy is how one endpoint reports failures. Business errors get the
// status chosen by Status; anything else is logged and reported as
// FallbackStatus with FallbackCode.
type errorPolicy struct {
	Name           string
	Status         func(e *services.Error) int
	FallbackStatus int
	FallbackCode   string
}

func (p errorPolicy) respond(w http.ResponseWriter, err error) {
	e, ok := services.AsError(err)
	if !ok || e.Err != nil {
		log.Printf("%s: %v", p.Name, err)
	}
	if !ok {
		respondCode(w, p.FallbackStatus, p.FallbackCode)
		return
	}
	respondCode(w, p.Status(e), e.Code)
}

// badBody reports an undecodable request body through the fallback path.
func (p errorPolicy) badBody(w http.ResponseWriter, err error) {
	log.Printf("%s: invalid request body: %v", p.Name, err)
	respondCode(w, p.FallbackStatus, p.FallbackCode)
}

func always(status int) func(*services.Error) int {
	return func(*services.Error) int { return status }
}

// authOr sends session failures to 403 and every other business error to
// the given status.
func authOr(status int) func(*services.Error) int {
	return func(e *services.Error) int {
		if e.Kind == services.KindAuth {
			return http.StatusForbidden
		}
		return status
	}
}
