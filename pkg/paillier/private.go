package paillier

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier/pkg/math/arith"
	"github.com/taurusgroup/paillier/pkg/math/sample"
)

// PrivateKey is the secret key corresponding to a Paillier PublicKey.
//
// It only holds the decryption exponent λ and the constant μ,
// along with a link to the public key for N and N².
type PrivateKey struct {
	pk *PublicKey
	// lambda = λ = lcm(p-1, q-1)
	lambda *saferith.Nat
	// mu = μ = L(gᵏ mod N²)⁻¹ mod N, with k = λ
	mu *saferith.Nat
}

// PublicKey returns the public key this key decrypts for.
func (sk *PrivateKey) PublicKey() *PublicKey {
	return sk.pk
}

// NewPrivateKeyFromPrimes creates the key pair of modulus N = p⋅q.
//
// p and q must be distinct primes with gcd(N, (p-1)(q-1)) = 1,
// otherwise ErrInvalidPrimes is returned.
func NewPrivateKeyFromPrimes(p, q *saferith.Nat) (*PrivateKey, error) {
	if p == nil || q == nil {
		return nil, fmt.Errorf("%w: prime is nil", ErrInvalidPrimes)
	}
	pBig, qBig := p.Big(), q.Big()
	if !sample.IsProbablePrime(pBig) || !sample.IsProbablePrime(qBig) {
		return nil, fmt.Errorf("%w: factor is not prime", ErrInvalidPrimes)
	}
	return newPrivateKeyFromPrimes(pBig, qBig)
}

// newPrivateKeyFromPrimes assumes that p and q are prime.
func newPrivateKeyFromPrimes(p, q *big.Int) (*PrivateKey, error) {
	if p.Cmp(q) == 0 {
		return nil, fmt.Errorf("%w: p = q", ErrInvalidPrimes)
	}
	one := big.NewInt(1)

	n := new(big.Int).Mul(p, q)
	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	// ϕ = (p-1)(q-1)
	phi := new(big.Int).Mul(pMinus1, qMinus1)
	if !arith.IsCoprime(n, phi) {
		return nil, fmt.Errorf("%w: gcd(N, ϕ) ≠ 1", ErrInvalidPrimes)
	}

	// λ = lcm(p-1, q-1)
	lambda := arith.LCM(pMinus1, qMinus1)

	nNat := new(saferith.Nat).SetBig(n, n.BitLen())
	pk := NewPublicKey(saferith.ModulusFromNat(nNat))
	return newPrivateKey(pk, new(saferith.Nat).SetBig(lambda, lambda.BitLen()))
}

// newPrivateKey derives μ from λ. lambda is kept by the returned key, and must not be shared.
func newPrivateKey(pk *PublicKey, lambda *saferith.Nat) (*PrivateKey, error) {
	n := pk.modN()
	g := new(saferith.Nat).SetBig(pk.g, pk.g.BitLen())
	// u = gᵏ (mod N²), with k = λ
	u := new(saferith.Nat).Exp(g, lambda.Clone(), pk.modNSquared())
	l, exact := arith.L(u, n)
	if exact != 1 {
		return nil, fmt.Errorf("%w: L(gᵏ mod N²) is not an integer", ErrModularInverseNotFound)
	}
	if l.IsUnit(n) != 1 {
		return nil, ErrModularInverseNotFound
	}
	mu := new(saferith.Nat).ModInverse(l, n)
	return &PrivateKey{
		pk:     pk,
		lambda: lambda,
		mu:     mu,
	}, nil
}

// Decrypt returns the plaintext m ∈ [0, N) of ct.
//
// m = L(ctᵏ mod N²)⋅μ (mod N), with k = λ
//
// It returns ErrInvalidCiphertext if ct is not in [0, N²),
// and ErrDecryptionMismatch if ct was produced under another key, or is not a unit.
func (sk *PrivateKey) Decrypt(ct *Ciphertext) (*big.Int, error) {
	if sk == nil || sk.lambda == nil || sk.mu == nil {
		return nil, ErrInvalidKey
	}
	pk := sk.pk
	if err := pk.check(); err != nil {
		return nil, err
	}
	if ct == nil || ct.c == nil {
		return nil, fmt.Errorf("%w: nil ciphertext", ErrInvalidCiphertext)
	}
	if !arith.InRange(ct.c.Big(), pk.nSquared) {
		return nil, ErrInvalidCiphertext
	}
	if ct.key != pk.fingerprint {
		return nil, ErrDecryptionMismatch
	}

	n := pk.modN()
	// u = ctᵏ (mod N²)
	u := new(saferith.Nat).Exp(ct.nat(), sk.lambda.Clone(), pk.modNSquared())
	// r = (u - 1)/N
	result, exact := arith.L(u, n)
	if exact != 1 {
		return nil, fmt.Errorf("%w: ctᵏ ≢ 1 (mod N)", ErrDecryptionMismatch)
	}
	// r = (u - 1)/N ⋅ μ (mod N)
	result.ModMul(result, sk.mu.Clone(), n)
	return result.Big(), nil
}

// Validate checks that λ and μ are consistent with the public key,
// by decrypting the encryption of a known value.
func (sk *PrivateKey) Validate() error {
	if sk == nil || sk.lambda == nil || sk.mu == nil {
		return ErrInvalidKey
	}
	pk := sk.pk
	if err := pk.check(); err != nil {
		return err
	}
	expected, err := newPrivateKey(pk, sk.lambda.Clone())
	if err != nil {
		return err
	}
	if expected.mu.Eq(sk.mu.Clone()) != 1 {
		return errors.New("paillier: μ is inconsistent with λ")
	}

	one := big.NewInt(1)
	ct, err := pk.EncryptWithNonce(one, big.NewInt(2))
	if err != nil {
		return err
	}
	m, err := sk.Decrypt(ct)
	if err != nil {
		return err
	}
	if m.Cmp(one) != 0 {
		return errors.New("paillier: λ is not a multiple of the order of ℤₙ²ˣ")
	}
	return nil
}
