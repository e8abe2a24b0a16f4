package test

import (
	"github.com/cronokirby/saferith"
)

// SmallPrimes returns the only two 4 bit primes, giving an 8 bit modulus N = 143.
func SmallPrimes() (p, q *saferith.Nat) {
	return new(saferith.Nat).SetUint64(11), new(saferith.Nat).SetUint64(13)
}

// Primes returns two fixed 64 bit primes, giving a 128 bit modulus.
func Primes() (p, q *saferith.Nat) {
	// 2⁶⁴ - 59 and 2⁶⁴ - 83
	return new(saferith.Nat).SetUint64(18446744073709551557), new(saferith.Nat).SetUint64(18446744073709551533)
}
