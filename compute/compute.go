package compute

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/restproxy/contract"
)

const (
	NameRequestID = "compute.RequestID"
	NameTimestamp = "compute.Timestamp"
)

// RequestID returns a new random UUID.
func RequestID() string {
	return uuid.NewString()
}

// Timestamp returns the current UTC time in RFC 3339 format.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Register adds the built-in functions to reg and returns it.
func Register(reg *contract.ComputeRegistry) *contract.ComputeRegistry {
	return reg.
		Register(NameRequestID, RequestID).
		Register(NameTimestamp, Timestamp)
}
