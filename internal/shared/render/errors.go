package render

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/feedback/internal/shared/errs"
)

// Error writes the hard rejection for err. Nothing about the target resource is included
// in the response body.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	logger := hlog.FromRequest(r)

	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		logger.Debug().Str("path", r.URL.Path).Msg("Unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
