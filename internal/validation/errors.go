package validation

import "errors"

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrInvalidMimeType is returned when an uploaded file has a disallowed MIME type
var ErrInvalidMimeType = errors.New("invalid MIME type")

// ErrUndecodableImage is returned when an upload claims to be an image but cannot be decoded
var ErrUndecodableImage = errors.New("file is not a valid image")
