package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinCost is the lowest bcrypt cost accepted for stored credentials.
	MinCost = 10
	// DefaultCost matches the salt rounds used by existing deployments.
	DefaultCost = 12
)

// PasswordHasher hashes and verifies account passwords with bcrypt.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher validates cost and returns a hasher.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", MinCost, bcrypt.MaxCost, cost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Cost returns the configured bcrypt cost.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether submitted matches the stored credential.
// Plaintext credentials (isHashed == false) are never accepted; they must be
// migrated with RehashLegacy first.
func (h *PasswordHasher) Verify(submitted, stored string, isHashed bool) bool {
	if !isHashed || stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
}

// Burn performs a comparison against a throwaway hash so that rejecting an
// unknown identifier takes as long as rejecting a wrong password.
func (h *PasswordHasher) Burn(submitted string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("demandhub-timing-equalizer"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(submitted))
}
