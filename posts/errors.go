package posts

import (
	"errors"
	"fmt"
)

var (
	ErrStorage  = errors.New("storage_error")
	ErrNotFound = fmt.Errorf("not_found: %w", ErrStorage)
)

// DecodeError reports a stored document that could not be turned into a Post.
type DecodeError struct {
	DocumentID string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode post %q: %v", e.DocumentID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
