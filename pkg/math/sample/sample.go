package sample

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier/internal/params"
)

var (
	ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", params.MaxIterations)
	ErrBitLength     = errors.New("sample: bit length too small")
)

func readBits(rand io.Reader, buf []byte) error {
	var err error
	for i := 0; i < params.MaxIterations; i++ {
		if _, err = io.ReadFull(rand, buf); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %w", ErrMaxIterations, err)
}

// topBits fills buf with random bytes, and keeps only the lowest bits bits of the resulting
// big-endian number.
func topBits(rand io.Reader, buf []byte, bits int) error {
	if err := readBits(rand, buf); err != nil {
		return err
	}
	// The number of significant bits in the first byte of our number
	lastBits := uint(bits % 8)
	if lastBits == 0 {
		lastBits = 8
	}
	buf[0] &= uint8(int(1<<lastBits) - 1)
	return nil
}

// Bits returns a uniformly random integer of exactly bits bits,
// i.e. in [2ᵇⁱᵗˢ⁻¹, 2ᵇⁱᵗˢ).
//
// The most significant bit is forced to 1, the others are left untouched.
func Bits(rand io.Reader, bits int) (*saferith.Nat, error) {
	if bits < 1 {
		return nil, ErrBitLength
	}
	buf := make([]byte, (bits+7)/8)
	if err := topBits(rand, buf, bits); err != nil {
		return nil, err
	}
	buf[0] |= 1 << uint((bits-1)%8)
	return new(saferith.Nat).SetBytes(buf).Resize(bits), nil
}

// ModN samples an element of ℤₙ.
func ModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	out := new(saferith.Nat)
	bits := n.BitLen()
	buf := make([]byte, (bits+7)/8)
	// Since the top bits are masked, each draw succeeds with probability at least 1/2.
	for i := 0; i < params.MaxIterations; i++ {
		if err := topBits(rand, buf, bits); err != nil {
			return nil, err
		}
		out.SetBytes(buf)
		if _, _, lt := out.CmpMod(n); lt == 1 {
			return out.Resize(bits), nil
		}
	}
	return nil, ErrMaxIterations
}

// UnitModN returns a u ∈ ℤₙˣ, i.e. 1 ≤ u < n with gcd(u, n) = 1.
func UnitModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	for i := 0; i < params.MaxIterations; i++ {
		// PERF: Reuse buffer instead of allocating each time
		u, err := ModN(rand, n)
		if err != nil {
			return nil, err
		}
		if u.IsUnit(n) == 1 {
			return u, nil
		}
	}
	return nil, ErrMaxIterations
}
