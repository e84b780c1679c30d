// Package hash implements the password hashing function used by the user
// store. The digest is a pure function of (id, salt, secret) so a stored hash
// can be recomputed and compared without keeping a random salt in the row.
package hash

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"

	"github.com/noah-isme/member-auth-api/pkg/config"
)

const keyLength = 64

// Params are the argon2id cost parameters.
type Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// DefaultParams are used when a configuration leaves a parameter at zero.
var DefaultParams = Params{Time: 1, MemoryKB: 64 * 1024, Threads: 2}

// Argon2 hashes secrets with argon2id, salting with id+salt and an optional
// server-side pepper.
type Argon2 struct {
	params Params
	pepper string
}

// New builds a hasher from params, filling zero fields from DefaultParams.
func New(params Params, pepper string) *Argon2 {
	if params.Time == 0 {
		params.Time = DefaultParams.Time
	}
	if params.MemoryKB == 0 {
		params.MemoryKB = DefaultParams.MemoryKB
	}
	if params.Threads == 0 {
		params.Threads = DefaultParams.Threads
	}
	return &Argon2{params: params, pepper: pepper}
}

// FromConfig builds a hasher from the application configuration.
func FromConfig(cfg config.HashConfig) *Argon2 {
	return New(Params{Time: cfg.Time, MemoryKB: cfg.MemoryKB, Threads: cfg.Threads}, cfg.Pepper)
}

// Hash returns the hex encoded argon2id digest of secret.
func (a *Argon2) Hash(id, salt, secret string) string {
	key := argon2.IDKey(
		[]byte(secret+a.pepper),
		[]byte(id+salt),
		a.params.Time,
		a.params.MemoryKB,
		a.params.Threads,
		keyLength,
	)
	return hex.EncodeToString(key)
}

// Equal compares two encoded digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
