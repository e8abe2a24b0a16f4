package paillier

import (
	"math/big"

	"github.com/cronokirby/saferith"
)

// Ciphertext is an element of ℤₙ², bound to the key it was produced under.
// It is never modified once created.
type Ciphertext struct {
	c   *saferith.Nat
	key Fingerprint
}

// Big returns a copy of the ciphertext as a big.Int.
func (ct *Ciphertext) Big() *big.Int {
	return ct.c.Big()
}

// Key returns the fingerprint of the public key ct belongs to.
func (ct *Ciphertext) Key() Fingerprint {
	return ct.key
}

// Equal checks whether ct ≡ ctₐ (mod N²), under the same key.
func (ct *Ciphertext) Equal(ctA *Ciphertext) bool {
	return ct.key == ctA.key && ct.nat().Eq(ctA.nat()) == 1
}

// Clone returns a deep copy of ct.
func (ct *Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{
		c:   ct.nat(),
		key: ct.key,
	}
}

// nat returns a copy of the value of ct, which saferith operations may then freely write to.
func (ct *Ciphertext) nat() *saferith.Nat {
	return new(saferith.Nat).SetNat(ct.c)
}

// String returns the ciphertext in hex.
func (ct *Ciphertext) String() string {
	if ct == nil || ct.c == nil {
		return "<nil>"
	}
	return ct.c.Big().Text(16)
}
