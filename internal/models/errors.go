package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCandidatesFound means the page (or its gallery container) has no image elements
	ErrNoCandidatesFound = errors.New("no images could be found on the page")
	// ErrNoQualifyingCandidate means images exist but none scored above zero
	ErrNoQualifyingCandidate = errors.New("could not identify a suitable product image")
	// ErrMalformedInput covers a missing or invalid URL, document or mode
	ErrMalformedInput = errors.New("malformed input")
)

// RenderError reports that the page could not be rendered
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// CloudflareBlockError reports that the target site served a bot-protection page
type CloudflareBlockError struct {
	Domain string
	Err    error
}

func (e *CloudflareBlockError) Error() string {
	return fmt.Sprintf("blocked by cloudflare on %s: %v", e.Domain, e.Err)
}

func (e *CloudflareBlockError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is one of the two "nothing found" outcomes
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoCandidatesFound) || errors.Is(err, ErrNoQualifyingCandidate)
}
