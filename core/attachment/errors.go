package attachment

import (
	"errors"
	"fmt"
)

var (
	// ErrAttachmentTooLarge is matched by every *TooLargeError.
	ErrAttachmentTooLarge = errors.New("attachment too large")
	// ErrUnsupportedType is returned for content that is not an image.
	ErrUnsupportedType = errors.New("unsupported attachment type")
)

// TooLargeError reports an attachment over the configured limit.
type TooLargeError struct {
	Name     string
	Size     int64
	MaxBytes int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("attachment %q is %d bytes, limit is %d bytes", e.Name, e.Size, e.MaxBytes)
}

func (e *TooLargeError) Unwrap() error { return ErrAttachmentTooLarge }
