package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/lexin-ta/lexin-api/internal/core"
	"github.com/lexin-ta/lexin-api/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("write response: %v", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses and always answers
// with a {"detail": ...} body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var validationErr *models.ValidationError
	var upstreamErr *core.UpstreamError

	switch {
	case errors.Is(err, core.ErrUnsupportedMediaType):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrMissingManifest),
		errors.Is(err, core.ErrMalformedDocument):
		status = http.StatusBadRequest
	case errors.As(err, &validationErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDuplicateDocument):
		status = http.StatusConflict
	case errors.Is(err, core.ErrResourceNotFound):
		status = http.StatusNotFound
	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
		if upstreamErr.StatusCode >= 400 {
			status = upstreamErr.StatusCode
		}
	}

	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
