// Package paillier implements the Paillier cryptosystem, with g = N+1.
//
// Ciphertexts can be combined without the secret key:
//
//	E(m₁)⋅E(m₂) = E(m₁ + m₂ (mod N))
//	E(m)ᵏ       = E(k⋅m (mod N))
//
// Only one side of a multiplication may be encrypted.
package paillier

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/paillier/internal/params"
	"github.com/taurusgroup/paillier/pkg/math/sample"
	"github.com/taurusgroup/paillier/pkg/pool"
)

var (
	ErrInvalidPlaintext       = errors.New("paillier: plaintext is not in [0, N)")
	ErrInvalidCiphertext      = errors.New("paillier: ciphertext is not in [0, N²)")
	ErrInvalidScalar          = errors.New("paillier: scalar is not in [0, N)")
	ErrInvalidNonce           = errors.New("paillier: nonce is not a unit mod N")
	ErrKeyGeneration          = errors.New("paillier: failed to generate key pair")
	ErrModularInverseNotFound = errors.New("paillier: modular inverse does not exist")
	ErrDecryptionMismatch     = errors.New("paillier: ciphertext was not produced under this key")
	ErrKeyMismatch            = errors.New("paillier: ciphertexts belong to different keys")
	ErrInvalidPrimes          = errors.New("paillier: unsuitable prime factors")
	ErrInvalidKey             = errors.New("paillier: key is not initialized")
)

// KeyGenerator generates Paillier key pairs.
//
// The zero value is usable: it reads from crypto/rand, searches on the calling goroutine,
// and discards log events.
type KeyGenerator struct {
	// Rand is the source of randomness for the prime factors.
	Rand io.Reader
	// Pool races prime candidates across its workers.
	Pool *pool.Pool
	// Log receives debug events about rejected candidates.
	// Secret values are never logged.
	Log zerolog.Logger
	// MaxAttempts bounds the number of prime pairs tried,
	// params.MaxKeyGenIterations if left at 0.
	MaxAttempts int
}

// GenerateKeyPair generates a new PublicKey whose modulus has exactly bitLength bits,
// and its associated PrivateKey.
//
// bitLength should be at least params.BitsPaillier for any real use.
// Smaller keys are only suitable for tests.
func GenerateKeyPair(rand io.Reader, bitLength int, pl *pool.Pool) (*PublicKey, *PrivateKey, error) {
	kg := KeyGenerator{Rand: rand, Pool: pl, Log: zerolog.Nop()}
	return kg.Generate(bitLength)
}

// Generate samples two distinct primes of bitLength/2 bits, until N = p⋅q has exactly bitLength bits
// and gcd(N, ϕ(N)) = 1, and derives the key pair from them.
func (kg *KeyGenerator) Generate(bitLength int) (*PublicKey, *PrivateKey, error) {
	if bitLength < params.MinBitsPaillier {
		return nil, nil, fmt.Errorf("%w: bit length %d is below the minimum of %d",
			ErrKeyGeneration, bitLength, params.MinBitsPaillier)
	}

	source := kg.Rand
	if source == nil {
		source = rand.Reader
	}
	maxAttempts := kg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = params.MaxKeyGenIterations
	}

	pBits, qBits := bitLength-bitLength/2, bitLength/2
	log := kg.Log.With().Int("bits", bitLength).Logger()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, err := sample.Prime(source, pBits, kg.Pool)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
		}
		q, err := sample.Prime(source, qBits, kg.Pool)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
		}

		pBig, qBig := p.Big(), q.Big()
		if nBits := new(big.Int).Mul(pBig, qBig).BitLen(); nBits != bitLength {
			log.Debug().Int("attempt", attempt).Int("modulus_bits", nBits).Msg("modulus has wrong length")
			continue
		}

		sk, err := newPrivateKeyFromPrimes(pBig, qBig)
		if errors.Is(err, ErrInvalidPrimes) || errors.Is(err, ErrModularInverseNotFound) {
			log.Debug().Int("attempt", attempt).Err(err).Msg("rejected prime pair")
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
		}

		log.Debug().Int("attempt", attempt).Stringer("fingerprint", sk.pk.Fingerprint()).Msg("generated key pair")
		return sk.pk, sk, nil
	}
	return nil, nil, fmt.Errorf("%w: no suitable primes after %d attempts", ErrKeyGeneration, maxAttempts)
}
