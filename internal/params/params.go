package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// MinBitsPaillier is the smallest modulus we agree to generate.
	// Anything below this cannot be split into two distinct primes with a product of the right size.
	// Keys this small are only useful for tests.
	MinBitsPaillier = 8

	// BitsPaillier is the recommended modulus length.
	BitsPaillier = 8 * SecParam // = 2048

	// PrimalityIterations is the number of Miller-Rabin rounds applied to each prime candidate.
	//
	// 20 is the same number that Go uses internally.
	PrimalityIterations = 20

	// MaxIterations bounds the rejection sampling loops (units mod N, buffer reads).
	MaxIterations = 255

	// MaxPrimeIterations is the number of candidates tried before giving up on a prime.
	//
	// This is substantially larger than MaxIterations, because of the sparsity of primes.
	MaxPrimeIterations = 100_000

	// MaxKeyGenIterations is the number of prime pairs tried before key generation fails.
	MaxKeyGenIterations = 1_000
)
