// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec isolates security-sensitive primitives from the domain.

# Architecture

  - Password digests: bcrypt and argon2id behind [PasswordHasher], which
    recognises every supported digest format and fails closed on anything else.
  - Work bounding: [Pool] caps concurrent hashing so an expensive digest never
    starves unrelated requests.
  - Tokens: opaque random tokens and their SHA-256 fingerprints.
  - Flow signing: short-lived HS256 envelopes for the delegated login round trip.
*/
package sec

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMalformedDigest means a stored digest could not be parsed.
	ErrMalformedDigest = errors.New("sec: malformed password digest")

	// ErrUnknownAlgorithm means no configured algorithm recognises the digest.
	ErrUnknownAlgorithm = errors.New("sec: unknown password digest algorithm")
)

// # Algorithms

// Algorithm is one password digest scheme.
type Algorithm interface {
	// Name is the configuration identifier ("bcrypt", "argon2id").
	Name() string

	// Hash returns a self-describing digest with a fresh random salt.
	Hash(plaintext string) (string, error)

	// Compare reports whether plaintext matches digest. A malformed digest
	// yields false together with an error wrapping [ErrMalformedDigest].
	Compare(plaintext, digest string) (bool, error)

	// Recognizes reports whether digest was produced by this algorithm.
	Recognizes(digest string) bool
}

// DefaultBcryptCost matches the work factor existing digests were created with.
const DefaultBcryptCost = 10

// MaxBcryptCost is the highest work factor accepted from a stored digest
// unless the configured cost is higher.
const MaxBcryptCost = 14

// argon2Headroom bounds how far a stored digest's parameters may exceed the
// configured ones before the digest is refused unevaluated.
const argon2Headroom = 4

// Bcrypt implements [Algorithm] with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a bcrypt algorithm with [DefaultBcryptCost].
func NewBcrypt() *Bcrypt {
	return &Bcrypt{Cost: DefaultBcryptCost}
}

func (b *Bcrypt) Name() string { return "bcrypt" }

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.Cost)
	if err != nil {
		return "", fmt.Errorf("sec: bcrypt hash failed: %w", err)
	}
	return string(hashedBytes), nil
}

func (b *Bcrypt) Compare(plaintext, digest string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
	if cost > max(MaxBcryptCost, b.Cost) {
		return false, fmt.Errorf("%w: cost %d above ceiling", ErrMalformedDigest, cost)
	}

	err = bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
}

func (b *Bcrypt) Recognizes(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}

// Argon2id implements [Algorithm] with golang.org/x/crypto/argon2.
//
// Digests use the PHC string format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
type Argon2id struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// NewArgon2id returns the OWASP-recommended parameter set.
func NewArgon2id() *Argon2id {
	return &Argon2id{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (a *Argon2id) Name() string { return "argon2id" }

func (a *Argon2id) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: argon2id salt generation failed: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2id) Compare(plaintext, digest string) (bool, error) {
	params, salt, key, err := decodeArgon2id(digest)
	if err != nil {
		return false, err
	}
	if err := a.admits(params, key); err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, computed) == 1, nil
}

func (a *Argon2id) Recognizes(digest string) bool {
	return strings.HasPrefix(digest, "$argon2id$")
}

// admits refuses digests whose parameters exceed argon2Headroom times the
// configured ones.
func (a *Argon2id) admits(params *Argon2id, key []byte) error {
	limits := []struct {
		name       string
		value, cap uint64
	}{
		{"memory", uint64(params.Memory), uint64(a.Memory) * argon2Headroom},
		{"iterations", uint64(params.Iterations), uint64(a.Iterations) * argon2Headroom},
		{"parallelism", uint64(params.Parallelism), uint64(a.Parallelism) * argon2Headroom},
		{"key length", uint64(len(key)), uint64(a.KeyLength) * argon2Headroom},
	}

	for _, limit := range limits {
		if limit.value > limit.cap {
			return fmt.Errorf("%w: %s %d above ceiling %d", ErrMalformedDigest, limit.name, limit.value, limit.cap)
		}
	}
	return nil
}

// decodeArgon2id parses a PHC string. Every failure wraps [ErrMalformedDigest].
func decodeArgon2id(digest string) (*Argon2id, []byte, []byte, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf("%w: unexpected layout", ErrMalformedDigest)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedDigest, parts[2])
	}

	params := &Argon2id{}
	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &parallelism); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: parameters: %v", ErrMalformedDigest, err)
	}
	if params.Memory == 0 || params.Iterations == 0 || parallelism == 0 || parallelism > 255 {
		return nil, nil, nil, fmt.Errorf("%w: parameters out of range", ErrMalformedDigest)
	}
	params.Parallelism = uint8(parallelism)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: salt encoding", ErrMalformedDigest)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: key encoding", ErrMalformedDigest)
	}

	return params, salt, key, nil
}

// # Password Hasher

// PasswordHasher hashes with one primary algorithm and verifies against any
// recognised one, so switching PASSWORD_HASHER never locks existing users out.
// Every call runs inside the bounded [Pool].
type PasswordHasher struct {
	primary    Algorithm
	algorithms []Algorithm
	pool       *Pool
}

// NewPasswordHasher builds a hasher. Additional algorithms are accepted for
// verification only.
func NewPasswordHasher(primary Algorithm, pool *Pool, verifyOnly ...Algorithm) *PasswordHasher {
	return &PasswordHasher{
		primary:    primary,
		algorithms: append([]Algorithm{primary}, verifyOnly...),
		pool:       pool,
	}
}

// NewPasswordHasherByName resolves "bcrypt" or "argon2id" as the primary
// algorithm and keeps the other one for verification.
func NewPasswordHasherByName(name string, pool *Pool) (*PasswordHasher, error) {
	bcryptAlg, argonAlg := NewBcrypt(), NewArgon2id()

	switch name {
	case bcryptAlg.Name():
		return NewPasswordHasher(bcryptAlg, pool, argonAlg), nil
	case argonAlg.Name():
		return NewPasswordHasher(argonAlg, pool, bcryptAlg), nil
	default:
		return nil, fmt.Errorf("sec: unsupported password hasher %q", name)
	}
}

/*
Hash produces a digest of plaintext with the primary algorithm.

Parameters:
  - context: context.Context (cancels the wait for a pool slot)
  - plaintext: string

Returns:
  - string: Self-describing digest
  - error: Context cancellation or entropy failure
*/
func (hasher *PasswordHasher) Hash(context context.Context, plaintext string) (string, error) {
	var digest string
	err := hasher.pool.Do(context, func() error {
		var hashErr error
		digest, hashErr = hasher.primary.Hash(plaintext)
		return hashErr
	})
	if err != nil {
		return "", err
	}
	return digest, nil
}

/*
Compare checks plaintext against digest and reports why a check could not run.

Returns:
  - bool: true only on a verified match
  - error: [ErrUnknownAlgorithm], [ErrMalformedDigest] or a context error
*/
func (hasher *PasswordHasher) Compare(context context.Context, plaintext, digest string) (bool, error) {
	algorithm := hasher.algorithmFor(digest)
	if algorithm == nil {
		return false, ErrUnknownAlgorithm
	}

	var matched bool
	err := hasher.pool.Do(context, func() error {
		var compareErr error
		matched, compareErr = algorithm.Compare(plaintext, digest)
		return compareErr
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

// Verify is [PasswordHasher.Compare] collapsed to a boolean. Any failure,
// including a malformed digest, reads as a mismatch.
func (hasher *PasswordHasher) Verify(context context.Context, plaintext, digest string) bool {
	matched, err := hasher.Compare(context, plaintext, digest)
	return err == nil && matched
}

// Algorithm returns the name of the primary algorithm.
func (hasher *PasswordHasher) Algorithm() string {
	return hasher.primary.Name()
}

func (hasher *PasswordHasher) algorithmFor(digest string) Algorithm {
	for _, algorithm := range hasher.algorithms {
		if algorithm.Recognizes(digest) {
			return algorithm
		}
	}
	return nil
}
