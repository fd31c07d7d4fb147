package store

import (
	"errors"
	"fmt"
)

// ErrEmptyCorpus means the input corpus is missing or has no readable records.
var ErrEmptyCorpus = errors.New("empty corpus")

// ErrMissingTenderID marks a tender record with no tender_id.
var ErrMissingTenderID = errors.New("missing tender_id")

// LoadError reports a source file or record that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
