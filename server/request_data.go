package server

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
)

// decodeRequest reads a JSON object body into dst. The body must be shorter
// than the configured maximum, every required key must be present and no
// string value may exceed the maximum string length.
func (s *Server) decodeRequest(r *http.Request, dst any, required ...string) error {
	maxBody := s.config.GetMaxBodyLength()
	body, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBody)))
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrValidation, "reading body")
	}
	if len(body) >= maxBody {
		return apperrors.Wrapf(apperrors.ErrValidation, "request body too long")
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return apperrors.Wrapf(apperrors.ErrValidation, "body is not a JSON object")
	}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			return apperrors.Wrapf(apperrors.ErrValidation, "missing key %s", key)
		}
	}
	maxString := s.config.GetMaxStringLength()
	for key, value := range fields {
		if str, ok := value.(string); ok && len(str) > maxString {
			return apperrors.Wrapf(apperrors.ErrValidation, "value of %s too long", key)
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Wrapf(apperrors.ErrValidation, "decoding body")
	}
	return nil
}
