package arith

import "math/big"

var one = big.NewInt(1)

// IsCoprime returns true if gcd(a,b) = 1.
func IsCoprime(a, b *big.Int) bool {
	var gcd big.Int
	return gcd.GCD(nil, nil, a, b).Cmp(one) == 0
}

// LCM returns lcm(a, b) = a⋅b / gcd(a, b), for a, b > 0.
func LCM(a, b *big.Int) *big.Int {
	var gcd big.Int
	gcd.GCD(nil, nil, a, b)
	out := new(big.Int).Div(a, &gcd)
	return out.Mul(out, b)
}

// InRange returns true if 0 ≤ x < bound.
//
// The comparison is on public sizes only, and is not constant time.
func InRange(x, bound *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(bound) < 0
}
