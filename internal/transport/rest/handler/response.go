package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/scoring"
	"digitalmaturity/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// user-facing messages for the service sentinels
var serviceErrors = []struct {
	err    error
	status int
	msg    string
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Codice di accesso o password non validi"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Credenziali non valide"},
	{service.ErrInvalidAdminKey, http.StatusUnauthorized, "Chiave admin non valida"},
	{service.ErrOrganizationNotFound, http.StatusNotFound, "Organizzazione non trovata"},
	{service.ErrAssessmentNotFound, http.StatusNotFound, "Assessment non trovato"},
	{service.ErrCatalogNotFound, http.StatusNotFound, "Questionario non trovato"},
	{service.ErrNotEligible, http.StatusForbidden, "È necessario completare almeno un assessment di livello 1 prima di accedere al livello 2"},
	{service.ErrAlreadyCompleted, http.StatusBadRequest, "Assessment già completato"},
	{service.ErrNotCompleted, http.StatusBadRequest, "Assessment non ancora completato"},
	{service.ErrNotRegenerable, http.StatusBadRequest, "Solo gli assessment completati possono essere rigenerati"},
}

// writeServiceError maps a service error to a status code; unknown errors
// are logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			writeError(w, se.status, se.msg)
			return
		}
	}
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case scoring.IsIntegrityError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Errore interno del server")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
