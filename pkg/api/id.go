package api

import (
	"strings"

	"github.com/google/uuid"
)

const requestIDPrefix = "req_"

// NewRequestID returns an identifier sent as X-Request-ID with every
// backend call so that a failing request can be matched in provider logs.
func NewRequestID() string {
	return requestIDPrefix + uuid.NewString()
}

// ValidateRequestID reports whether id was produced by NewRequestID.
func ValidateRequestID(id string) bool {
	rest, ok := strings.CutPrefix(id, requestIDPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil && len(rest) == 36
}
