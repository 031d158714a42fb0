// Package capability implements the listing capability: a sealed,
// unforgeable credential whose possession grants the right to create items.
// Tokens can only be minted by an Issuer and are verified by possession,
// never by comparing a stored flag.
package capability

import (
	"crypto/sha256"
	"crypto/subtle"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations matches the OWASP-recommended minimum for
	// HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// fingerprintLen is the derived fingerprint length in bytes.
	fingerprintLen = 32
)

// derivationSalt is fixed so the API-facing fingerprint of a given issuer
// secret is stable across restarts.
var derivationSalt = []byte("thriftchain/listing-capability/v1")

// Token is a listing capability. Its fields are unexported and it has no
// constructor outside this package, so holding a *Token is proof that the
// Issuer minted it. Tokens intentionally do not marshal to anything.
type Token struct {
	fingerprint []byte
}

// Issuer mints and verifies listing capabilities. One Issuer is created at
// system initialization from an operator-held secret.
type Issuer struct {
	fingerprint []byte

	mu     sync.RWMutex
	issued map[*Token]struct{}
}

// NewIssuer derives the issuer's fingerprint from the operator secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		fingerprint: pbkdf2.Key([]byte(secret), derivationSalt, pbkdf2Iterations, fingerprintLen, sha256.New),
		issued:      make(map[*Token]struct{}),
	}
}

// Issue mints a new capability token and records it as outstanding.
func (i *Issuer) Issue() *Token {
	t := &Token{fingerprint: i.fingerprint}

	i.mu.Lock()
	i.issued[t] = struct{}{}
	i.mu.Unlock()

	return t
}

// Verify reports whether t was minted by this issuer. The check is by
// identity: only pointers handed out by Issue pass.
func (i *Issuer) Verify(t *Token) bool {
	if t == nil {
		return false
	}
	i.mu.RLock()
	_, ok := i.issued[t]
	i.mu.RUnlock()
	return ok
}

// Redeem exchanges a presented secret for the process-held capability. The
// API boundary uses this to turn a bearer credential into a token;
// comparison is constant-time. The first successful redemption mints the
// token, later ones return the same one. A wrong secret returns nil.
func (i *Issuer) Redeem(secret string) *Token {
	presented := pbkdf2.Key([]byte(secret), derivationSalt, pbkdf2Iterations, fingerprintLen, sha256.New)
	if subtle.ConstantTimeCompare(presented, i.fingerprint) != 1 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for t := range i.issued {
		return t
	}
	t := &Token{fingerprint: i.fingerprint}
	i.issued[t] = struct{}{}
	return t
}
