package services

import "errors"

// Service errors
var (
	// ErrDatasetNotLoaded is returned until the first successful load.
	ErrDatasetNotLoaded = errors.New("dataset not loaded")

	// ErrEmptyUpload is returned when an uploaded sheet has no data rows.
	ErrEmptyUpload = errors.New("upload contains no harvest rows")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
