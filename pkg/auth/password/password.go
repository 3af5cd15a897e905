// Package password hashes and checks advisor passwords with bcrypt.
package password

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = errors.New("password does not match")

// Hasher hashes passwords at a fixed bcrypt cost.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// New creates a Hasher. A zero cost selects bcrypt.DefaultCost.
func New(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns the bcrypt hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hashing: %w", err)
	}
	return string(hash), nil
}

// Compare checks plain against hash in constant time. It returns ErrMismatch
// on a wrong password and a wrapped error for a malformed hash.
func (h *Hasher) Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("password: comparing: %w", err)
	}
}

// CompareDummy runs one comparison against a fixed hash of the same cost and
// always returns ErrMismatch. Login calls it for unknown emails so the
// response time does not reveal whether an account exists.
func (h *Hasher) CompareDummy(plain string) error {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("richieat-unknown-account"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
	return ErrMismatch
}
