package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/site-content/pkg/sitecontent"
)

const internalErrorMessage = "Internal server error"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// publicMessage is the text callers see for err. Internal details stay in
// the log.
func publicMessage(err error) string {
	var (
		valErr      *sitecontent.ValidationError
		notFoundErr *sitecontent.NotFoundError
		cfgErr      *sitecontent.ConfigurationError
	)
	switch {
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.As(err, &notFoundErr):
		return notFoundErr.Message
	case errors.Is(err, sitecontent.ErrNotFound):
		return "Not found"
	case errors.As(err, &cfgErr):
		return cfgErr.Error()
	default:
		return internalErrorMessage
	}
}

// writeError renders err as {"error": ...} with the status its kind maps to.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := sitecontent.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "err", err)
	} else {
		logger.Debug("request rejected", "request_id", RequestID(r.Context()), "path", r.URL.Path, "status", status, "err", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: publicMessage(err)})
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: message})
}

// decodeJSON reads the request body into v, answering 400 on malformed
// input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, r, "Invalid request body")
		return false
	}
	return true
}
