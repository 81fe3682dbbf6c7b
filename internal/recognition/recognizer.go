package recognition

import (
	"context"
	"errors"
	"strings"
)

// Result is the structured guess extracted from a product photo.
type Result struct {
	Brand string `json:"brand"`
	Name  string `json:"name"`
}

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyImage       = errors.New("empty image")
)

// Recognizer turns a product photo into a brand/name guess. Implementations
// must bound each call with their own timeout; callers treat a failure as a
// retryable operation error, never a crash.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (Result, error)
}

// MergePrefill applies a recognition result to the caller's current draft.
// Only empty draft fields are filled, and an empty recognition value never
// overwrites text the user already entered.
func MergePrefill(draft, recognized Result) Result {
	out := draft
	if strings.TrimSpace(out.Brand) == "" && strings.TrimSpace(recognized.Brand) != "" {
		out.Brand = strings.TrimSpace(recognized.Brand)
	}
	if strings.TrimSpace(out.Name) == "" && strings.TrimSpace(recognized.Name) != "" {
		out.Name = strings.TrimSpace(recognized.Name)
	}
	return out
}

// ValidateImage rejects payloads the inference endpoint cannot handle before
// any network call is made.
func ValidateImage(image []byte, mimeType string) error {
	if len(image) == 0 {
		return ErrEmptyImage
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return ErrUnsupportedImage
	}
	return nil
}
