package utilities

import (
	"github.com/segmentio/ksuid"
)

// NewRequestID generates a new globally unique, time-sortable request id.
func NewRequestID() string {
	return ksuid.New().String()
}
