package repository

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces a new record identity. Implementations must make a
// repeat negligible by construction; the repository never checks.
type IDGenerator func() (string, error)

// NewUUID returns a random (version 4) UUID string.
func NewUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewULID returns a 26-char ULID with crypto/rand entropy.
func NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// GeneratorFor maps an id scheme name to its generator. Unknown names get
// UUIDs.
func GeneratorFor(scheme string) IDGenerator {
	if scheme == "ulid" {
		return NewULID
	}
	return NewUUID
}
