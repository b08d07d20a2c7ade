package testhelpers

import (
	"math/rand"
	"time"

	"github.com/nu7hatch/gouuid"
)

// Test helpers useful for generating random elevator workloads.

// Generates a new random number generator seeded with the current time.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Generates a valid random request ID.
func GenRequestID() string {
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}
