package grid

import "errors"

// User-facing input failures. None of them are retryable; callers report the
// message and return to an idle state.
var (
	// ErrInvalidMediaType is returned when the upload is not an image.
	ErrInvalidMediaType = errors.New("invalid media type")

	// ErrFileTooLarge is returned when the upload exceeds the byte or pixel cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidImage is returned for undecodable or zero-dimension images.
	ErrInvalidImage = errors.New("invalid image")

	// ErrNothingToPackage is returned when an archive is requested without tiles.
	ErrNothingToPackage = errors.New("nothing to package")
)
