package paillier

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier/internal/hash"
	"github.com/taurusgroup/paillier/internal/params"
	"github.com/taurusgroup/paillier/pkg/math/arith"
	"github.com/taurusgroup/paillier/pkg/math/sample"
)

// Fingerprint identifies a public key, it is the hash of its modulus.
type Fingerprint [hash.DigestLengthBytes]byte

// String returns the fingerprint in hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// PublicKey is a Paillier public key, made of the modulus N.
// It holds no secret, and may be shared and used concurrently.
//
// Keys must come from NewPublicKey, GenerateKeyPair, or UnmarshalBinary.
// Methods on a zero PublicKey return ErrInvalidKey.
type PublicKey struct {
	// n = p⋅q
	n *big.Int
	// nSquared = n²
	nSquared *big.Int
	// g = n + 1
	g *big.Int

	bitLength   int
	fingerprint Fingerprint
}

// NewPublicKey returns the PublicKey for the modulus n.
// The modulus is not validated, and should be odd.
func NewPublicKey(n *saferith.Modulus) *PublicKey {
	nBig := n.Big()
	pk := &PublicKey{
		n:         nBig,
		nSquared:  arith.Square(n).Big(),
		g:         new(big.Int).Add(nBig, big.NewInt(1)),
		bitLength: nBig.BitLen(),
	}

	h := hash.New()
	if err := h.WriteAny(pk); err != nil {
		panic(fmt.Sprintf("paillier: failed to hash public key: %v", err))
	}
	copy(pk.fingerprint[:], h.Sum())
	return pk
}

// modN returns a fresh copy of N.
//
// saferith may write to the limbs of any operand, so operations never touch the key's own values.
func (pk *PublicKey) modN() *saferith.Modulus {
	return saferith.ModulusFromNat(new(saferith.Nat).SetBig(pk.n, pk.bitLength))
}

func (pk *PublicKey) modNSquared() *saferith.Modulus {
	return saferith.ModulusFromNat(new(saferith.Nat).SetBig(pk.nSquared, pk.nSquared.BitLen()))
}

func (pk *PublicKey) check() error {
	if pk == nil || pk.n == nil {
		return ErrInvalidKey
	}
	return nil
}

// validateModulus checks that n can be a Paillier modulus: odd and large enough.
func validateModulus(n *saferith.Modulus) error {
	if n.BitLen() < params.MinBitsPaillier {
		return fmt.Errorf("paillier: modulus has %d bits, need at least %d", n.BitLen(), params.MinBitsPaillier)
	}
	if n.Big().Bit(0) == 0 {
		return errors.New("paillier: modulus is even")
	}
	return nil
}

// Encrypt returns the encryption of m under the public key pk.
// A fresh nonce ρ ∈ ℤₙˣ is sampled from rand.
//
// ct = gᵐ⋅ρᴺ (mod N²)
//
// m must already be in [0, N). Signed or larger values have to be reduced by the caller.
func (pk *PublicKey) Encrypt(rand io.Reader, m *big.Int) (*Ciphertext, error) {
	if err := pk.check(); err != nil {
		return nil, err
	}
	if !arith.InRange(m, pk.n) {
		return nil, ErrInvalidPlaintext
	}
	nonce, err := sample.UnitModN(rand, pk.modN())
	if err != nil {
		return nil, fmt.Errorf("paillier: failed to sample nonce: %w", err)
	}
	return pk.enc(m, nonce), nil
}

// EncryptWithNonce returns the encryption of m under the public key pk, using the given nonce.
// The result is deterministic, and the nonce must never be reused.
func (pk *PublicKey) EncryptWithNonce(m, nonce *big.Int) (*Ciphertext, error) {
	if err := pk.check(); err != nil {
		return nil, err
	}
	if !arith.InRange(m, pk.n) {
		return nil, ErrInvalidPlaintext
	}
	if !arith.InRange(nonce, pk.n) || !arith.IsCoprime(nonce, pk.n) {
		return nil, ErrInvalidNonce
	}
	return pk.enc(m, new(saferith.Nat).SetBig(nonce, pk.bitLength)), nil
}

func (pk *PublicKey) enc(m *big.Int, nonce *saferith.Nat) *Ciphertext {
	nSquared := pk.modNSquared()
	mNat := new(saferith.Nat).SetBig(m, pk.bitLength)
	g := new(saferith.Nat).SetBig(pk.g, pk.g.BitLen())
	nNat := new(saferith.Nat).SetBig(pk.n, pk.bitLength)

	// gᵐ (mod N²)
	c := new(saferith.Nat).Exp(g, mNat, nSquared)
	// ρᴺ (mod N²)
	rhoN := new(saferith.Nat).Exp(nonce, nNat, nSquared)
	// ct = gᵐ⋅ρᴺ (mod N²)
	c.ModMul(c, rhoN, nSquared)

	return &Ciphertext{c: c, key: pk.fingerprint}
}

// Addition returns the homomorphic sum of the given ciphertexts.
//
// ct = ct₁⋅ct₂⋯ctₖ (mod N²), which decrypts to m₁ + m₂ + … + mₖ (mod N).
//
// At least one ciphertext is needed; a single one is returned as a copy.
func (pk *PublicKey) Addition(cts ...*Ciphertext) (*Ciphertext, error) {
	if len(cts) == 0 {
		return nil, fmt.Errorf("%w: nothing to add", ErrInvalidCiphertext)
	}
	for _, ct := range cts {
		if err := pk.ValidateCiphertext(ct); err != nil {
			return nil, err
		}
	}

	nSquared := pk.modNSquared()
	sum := cts[0].nat()
	for _, ct := range cts[1:] {
		sum.ModMul(sum, ct.nat(), nSquared)
	}
	return &Ciphertext{c: sum, key: pk.fingerprint}, nil
}

// Multiply returns the homomorphic multiplication of the plaintext of ct by the plaintext scalar k.
//
// ct' = ctᵏ (mod N²), which decrypts to k⋅m (mod N).
//
// Multiplying two ciphertexts together is not supported by the scheme.
func (pk *PublicKey) Multiply(ct *Ciphertext, k *big.Int) (*Ciphertext, error) {
	if err := pk.ValidateCiphertext(ct); err != nil {
		return nil, err
	}
	if !arith.InRange(k, pk.n) {
		return nil, ErrInvalidScalar
	}
	kNat := new(saferith.Nat).SetBig(k, pk.bitLength)
	c := new(saferith.Nat).Exp(ct.nat(), kNat, pk.modNSquared())
	return &Ciphertext{c: c, key: pk.fingerprint}, nil
}

// Ciphertext interprets c as a ciphertext under pk.
// It returns ErrInvalidCiphertext if c is not in [0, N²).
func (pk *PublicKey) Ciphertext(c *big.Int) (*Ciphertext, error) {
	if err := pk.check(); err != nil {
		return nil, err
	}
	if !arith.InRange(c, pk.nSquared) {
		return nil, ErrInvalidCiphertext
	}
	return &Ciphertext{
		c:   new(saferith.Nat).SetBig(c, pk.nSquared.BitLen()),
		key: pk.fingerprint,
	}, nil
}

// ValidateCiphertext checks that ct belongs to pk and lies in [0, N²).
func (pk *PublicKey) ValidateCiphertext(ct *Ciphertext) error {
	if err := pk.check(); err != nil {
		return err
	}
	if ct == nil || ct.c == nil {
		return fmt.Errorf("%w: nil ciphertext", ErrInvalidCiphertext)
	}
	if !arith.InRange(ct.c.Big(), pk.nSquared) {
		return ErrInvalidCiphertext
	}
	if ct.key != pk.fingerprint {
		return ErrKeyMismatch
	}
	return nil
}

// Equal returns true if pk ≡ other.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.fingerprint == other.fingerprint
}

// BitLength returns the number of bits of N.
func (pk *PublicKey) BitLength() int {
	return pk.bitLength
}

// Fingerprint returns the hash identifying this key.
func (pk *PublicKey) Fingerprint() Fingerprint {
	return pk.fingerprint
}

// N returns a copy of the public modulus making up this key.
func (pk *PublicKey) N() *saferith.Modulus {
	return pk.modN()
}

// NSquared returns a copy of the modulus N² of the ciphertext space.
func (pk *PublicKey) NSquared() *saferith.Modulus {
	return pk.modNSquared()
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (pk *PublicKey) WriteTo(w io.Writer) (int64, error) {
	if pk == nil || pk.n == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(pk.n.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (*PublicKey) Domain() string {
	return "Paillier PublicKey"
}
