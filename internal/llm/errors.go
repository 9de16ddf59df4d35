package llm

import "errors"

// ErrMalformedResponse marks a completion that did not honor a requested
// OutputSchema. Callers must not guess-parse around it.
var ErrMalformedResponse = errors.New("model response does not conform to requested schema")

// ErrEmptyResponse marks a completion with no choices.
var ErrEmptyResponse = errors.New("model returned no choices")
