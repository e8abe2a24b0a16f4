package arith

import (
	"github.com/cronokirby/saferith"
)

// L computes L(u) = (u-1)/n.
//
// The quotient is only meaningful when n divides u-1, which is reported by the returned Choice.
// When u ≡ 1 (mod n), (u-1)/n = ⌊u/n⌋, so no subtraction is needed.
func L(u *saferith.Nat, n *saferith.Modulus) (*saferith.Nat, saferith.Choice) {
	oneNat := new(saferith.Nat).SetUint64(1)
	exact := new(saferith.Nat).Mod(u, n).Eq(oneNat)
	return new(saferith.Nat).Div(u, n, -1), exact
}

// Square returns the modulus n².
func Square(n *saferith.Modulus) *saferith.Modulus {
	nNat := n.Nat()
	return saferith.ModulusFromNat(new(saferith.Nat).Mul(nNat, nNat, -1))
}
