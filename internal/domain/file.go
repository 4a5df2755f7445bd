package domain

import "io"

// PendingFile is an uploaded file that passed validation but is not stored yet.
type PendingFile struct {
	Filename    string
	MimeType    string
	SizeBytes   int64
	ImageWidth  *int
	ImageHeight *int
	Data        io.Reader
}
