package llm

import (
	"errors"
	"fmt"
)

// Failure reasons carried by ClassificationError.
const (
	ReasonTransport     = "transport"
	ReasonMalformedJSON = "malformed-json"
)

// ClassificationError reports why an issue could not be classified. No
// ticket is created when it is returned.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed (%s): %v", e.Reason, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is a ClassificationError caused by an
// unparsable model reply.
func IsMalformed(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce) && ce.Reason == ReasonMalformedJSON
}
