package validation

import (
	"fmt"
	"net/http"
)

// ValidateAndParseMultipart caps the body at maxSize and parses the multipart
// form. Hitting the cap closes the connection, which clients observe as a reset.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return fmt.Errorf("%w: failed to parse multipart form", ErrPayloadTooLarge)
	}
	return nil
}

// FormatSizeMB converts bytes to megabytes for user-facing messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
