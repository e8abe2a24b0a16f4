package sample

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/paillier/internal/params"
	"github.com/taurusgroup/paillier/pkg/pool"
)

// ErrMaxPrimeIterations is the error we return when we fail to generate a prime.
var ErrMaxPrimeIterations = fmt.Errorf("sample: failed to generate prime after %d iterations", params.MaxPrimeIterations)

// trialPrimes contains the first 128 odd prime numbers.
//
// Candidates divisible by one of these are rejected before running Miller-Rabin.
var trialPrimes = []uint64{
	3, 5, 7, 11, 13, 17, 19, 23,
	29, 31, 37, 41, 43, 47, 53, 59,
	61, 67, 71, 73, 79, 83, 89, 97,
	101, 103, 107, 109, 113, 127, 131, 137,
	139, 149, 151, 157, 163, 167, 173, 179,
	181, 191, 193, 197, 199, 211, 223, 227,
	229, 233, 239, 241, 251, 257, 263, 269,
	271, 277, 281, 283, 293, 307, 311, 313,
	317, 331, 337, 347, 349, 353, 359, 367,
	373, 379, 383, 389, 397, 401, 409, 419,
	421, 431, 433, 439, 443, 449, 457, 461,
	463, 467, 479, 487, 491, 499, 503, 509,
	521, 523, 541, 547, 557, 563, 569, 571,
	577, 587, 593, 599, 601, 607, 613, 617,
	619, 631, 641, 643, 647, 653, 659, 661,
	673, 677, 683, 691, 701, 709, 719, 727,
}

// passesTrialDivision returns false if p has one of the trialPrimes as a proper divisor.
func passesTrialDivision(p *big.Int) bool {
	scratch := new(big.Int)
	for _, prime := range trialPrimes {
		if p.IsUint64() && p.Uint64() == prime {
			return true
		}
		scratch.SetUint64(prime)
		if scratch.Mod(p, scratch).Sign() == 0 {
			return false
		}
	}
	return true
}

// IsProbablePrime runs trial division, followed by params.PrimalityIterations rounds
// of Miller-Rabin and a Baillie-PSW test.
//
// Values below 2⁶⁴ are decided exactly.
func IsProbablePrime(p *big.Int) bool {
	if p.Cmp(big.NewInt(2)) < 0 {
		return false
	}
	if p.Bit(0) == 0 {
		return p.Cmp(big.NewInt(2)) == 0
	}
	return passesTrialDivision(p) && p.ProbablyPrime(params.PrimalityIterations)
}

// tryPrime draws a single odd candidate of exactly bits bits, and returns it if it is prime.
//
// The candidate is fresh for every call, so that the output is uniform among primes of this size.
func tryPrime(rand io.Reader, bits int) (*big.Int, error) {
	candidate, err := Bits(rand, bits)
	if err != nil {
		return nil, err
	}
	p := candidate.Big()
	p.SetBit(p, 0, 1)
	if !IsProbablePrime(p) {
		return nil, nil
	}
	return p, nil
}

// Prime returns a probable prime of exactly bits bits.
//
// Candidates are raced across the workers of pl, sharing rand behind a lock.
// At most params.MaxPrimeIterations candidates are drawn.
func Prime(rand io.Reader, bits int, pl *pool.Pool) (*saferith.Nat, error) {
	if bits < 2 {
		return nil, ErrBitLength
	}

	reader := pool.NewLockedReader(rand)
	var (
		readErr  error
		readOnce sync.Once
	)
	results, err := pl.Search(1, params.MaxPrimeIterations, func() interface{} {
		p, err := tryPrime(reader, bits)
		if err != nil {
			readOnce.Do(func() { readErr = err })
			return nil
		}
		// You have to do this, because of how Go handles nil.
		if p == nil {
			return nil
		}
		return p
	})
	if readErr != nil {
		return nil, fmt.Errorf("sample: read randomness: %w", readErr)
	}
	if errors.Is(err, pool.ErrSearchExhausted) {
		return nil, ErrMaxPrimeIterations
	}
	if err != nil {
		return nil, err
	}
	return new(saferith.Nat).SetBig(results[0].(*big.Int), bits), nil
}
