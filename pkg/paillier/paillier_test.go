package paillier

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/paillier/internal/test"
	"github.com/taurusgroup/paillier/pkg/pool"
)

// constReader returns the same byte forever.
type constReader byte

func (r constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

func smallKey(t testing.TB) (*PublicKey, *PrivateKey) {
	sk, err := NewPrivateKeyFromPrimes(test.SmallPrimes())
	require.NoError(t, err)
	return sk.PublicKey(), sk
}

func fixedKey(t testing.TB) (*PublicKey, *PrivateKey) {
	sk, err := NewPrivateKeyFromPrimes(test.Primes())
	require.NoError(t, err)
	return sk.PublicKey(), sk
}

// randomPlaintext returns a value in (1, N).
func randomPlaintext(t testing.TB, pk *PublicKey) *big.Int {
	bound := new(big.Int).Sub(pk.N().Big(), big.NewInt(2))
	m, err := rand.Int(rand.Reader, bound)
	require.NoError(t, err)
	return m.Add(m, big.NewInt(2))
}

func TestGenerateKeyPair(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	for _, bitLength := range []int{8, 9, 16, 33, 128} {
		for _, p := range []*pool.Pool{nil, pl} {
			pk, sk, err := GenerateKeyPair(rand.Reader, bitLength, p)
			require.NoError(t, err)
			require.NotNil(t, pk)
			require.NotNil(t, sk)
			assert.Equal(t, bitLength, pk.BitLength(), "public modulus should have %d bits", bitLength)
			assert.Equal(t, bitLength, pk.N().Big().BitLen())
			assert.Same(t, pk, sk.PublicKey())
			assert.NoError(t, sk.Validate())
		}
	}
}

func TestGenerateKeyPair_Small(t *testing.T) {
	// the only 8 bit key is 11⋅13
	for i := 0; i < 10; i++ {
		pk, _, err := GenerateKeyPair(rand.Reader, 8, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 143, pk.N().Big().Int64())
	}
}

func TestGenerateKeyPair_Errors(t *testing.T) {
	_, _, err := GenerateKeyPair(rand.Reader, 7, nil)
	assert.ErrorIs(t, err, ErrKeyGeneration)

	_, _, err = GenerateKeyPair(rand.Reader, 0, nil)
	assert.ErrorIs(t, err, ErrKeyGeneration)

	// 0xff gives the candidate 15, which is never prime
	_, _, err = GenerateKeyPair(constReader(0xff), 8, nil)
	assert.ErrorIs(t, err, ErrKeyGeneration)

	// 0x0d gives the candidate 13 every time, so p = q always
	kg := KeyGenerator{Rand: constReader(0x0d), MaxAttempts: 5}
	_, _, err = kg.Generate(8)
	assert.ErrorIs(t, err, ErrKeyGeneration)
}

func TestKeyGenerator_Deterministic(t *testing.T) {
	kg1 := KeyGenerator{Rand: test.Reader("keygen")}
	kg2 := KeyGenerator{Rand: test.Reader("keygen")}
	pk1, _, err := kg1.Generate(128)
	require.NoError(t, err)
	pk2, _, err := kg2.Generate(128)
	require.NoError(t, err)
	assert.True(t, pk1.Equal(pk2), "same randomness should give the same key")

	kg3 := KeyGenerator{Rand: test.Reader("other")}
	pk3, _, err := kg3.Generate(128)
	require.NoError(t, err)
	assert.False(t, pk1.Equal(pk3))
}

func TestKeyGenerator_Log(t *testing.T) {
	var buf bytes.Buffer
	kg := KeyGenerator{
		Rand: rand.Reader,
		Log:  zerolog.New(&buf).Level(zerolog.DebugLevel),
	}
	pk, _, err := kg.Generate(64)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "generated key pair")
	assert.Contains(t, buf.String(), pk.Fingerprint().String())
}

func TestNewPrivateKeyFromPrimes(t *testing.T) {
	p, q := test.SmallPrimes()
	sk, err := NewPrivateKeyFromPrimes(p, q)
	require.NoError(t, err)
	pk := sk.PublicKey()
	assert.EqualValues(t, 143, pk.N().Big().Int64())
	assert.Equal(t, 8, pk.BitLength())
	// λ = lcm(10, 12)
	assert.EqualValues(t, 60, sk.lambda.Big().Int64())
	// g = N+1
	assert.EqualValues(t, 144, pk.g.Int64())

	_, err = NewPrivateKeyFromPrimes(p, p)
	assert.ErrorIs(t, err, ErrInvalidPrimes)

	_, err = NewPrivateKeyFromPrimes(p, new(saferith.Nat).SetUint64(15))
	assert.ErrorIs(t, err, ErrInvalidPrimes)

	// 3 divides 7 - 1, so gcd(21, 2⋅6) = 3
	_, err = NewPrivateKeyFromPrimes(new(saferith.Nat).SetUint64(3), new(saferith.Nat).SetUint64(7))
	assert.ErrorIs(t, err, ErrInvalidPrimes)

	_, err = NewPrivateKeyFromPrimes(nil, q)
	assert.ErrorIs(t, err, ErrInvalidPrimes)
}

func TestPaillier(t *testing.T) {
	pk, sk, err := GenerateKeyPair(rand.Reader, 256, nil)
	require.NoError(t, err)
	n := pk.N().Big()

	for i := 0; i < 10; i++ {
		m1 := randomPlaintext(t, pk)
		m2 := randomPlaintext(t, pk)
		k := randomPlaintext(t, pk)

		ct1, err := pk.Encrypt(rand.Reader, m1)
		require.NoError(t, err)
		ct2, err := pk.Encrypt(rand.Reader, m2)
		require.NoError(t, err)

		// Test decryption
		d1, err := sk.Decrypt(ct1)
		require.NoError(t, err)
		require.Equal(t, 0, d1.Cmp(m1), "D(E(m)) should be m")

		// Test adding
		ct1plus2, err := pk.Addition(ct1, ct2)
		require.NoError(t, err)
		sum, err := sk.Decrypt(ct1plus2)
		require.NoError(t, err)
		expected := new(big.Int).Add(m1, m2)
		expected.Mod(expected, n)
		require.Equal(t, 0, expected.Cmp(sum))

		// Test multiplication
		ct1timesK, err := pk.Multiply(ct1, k)
		require.NoError(t, err)
		prod, err := sk.Decrypt(ct1timesK)
		require.NoError(t, err)
		expected.Mul(m1, k)
		expected.Mod(expected, n)
		require.Equal(t, 0, expected.Cmp(prod))
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	pk, _ := fixedKey(t)
	m := big.NewInt(42)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ct, err := pk.Encrypt(rand.Reader, m)
		require.NoError(t, err)
		s := ct.String()
		assert.False(t, seen[s], "encryption should be randomized")
		seen[s] = true
	}
}

func TestEncryptWithNonce(t *testing.T) {
	pk, sk := smallKey(t)
	m := big.NewInt(5)
	ct1, err := pk.EncryptWithNonce(m, big.NewInt(2))
	require.NoError(t, err)
	ct2, err := pk.EncryptWithNonce(m, big.NewInt(2))
	require.NoError(t, err)
	assert.True(t, ct1.Equal(ct2), "same nonce should give the same ciphertext")

	// (1+N)⁵⋅2ᴺ (mod N²)
	nSquared := big.NewInt(143 * 143)
	expected := new(big.Int).Exp(big.NewInt(144), m, nSquared)
	expected.Mul(expected, new(big.Int).Exp(big.NewInt(2), big.NewInt(143), nSquared))
	expected.Mod(expected, nSquared)
	assert.Equal(t, 0, expected.Cmp(ct1.Big()))

	d, err := sk.Decrypt(ct1)
	require.NoError(t, err)
	assert.EqualValues(t, 5, d.Int64())

	for _, nonce := range []int64{0, -1, 11, 13, 143, 200} {
		_, err = pk.EncryptWithNonce(m, big.NewInt(nonce))
		assert.ErrorIs(t, err, ErrInvalidNonce, "nonce %d should be rejected", nonce)
	}
	_, err = pk.EncryptWithNonce(big.NewInt(143), big.NewInt(2))
	assert.ErrorIs(t, err, ErrInvalidPlaintext)
}

func TestEncrypt_Boundaries(t *testing.T) {
	pk, sk := smallKey(t)
	n := pk.N().Big()

	for _, m := range []*big.Int{n, big.NewInt(-1), new(big.Int).Add(n, n), nil} {
		_, err := pk.Encrypt(rand.Reader, m)
		assert.ErrorIs(t, err, ErrInvalidPlaintext)
	}

	for _, m := range []*big.Int{big.NewInt(0), big.NewInt(1), new(big.Int).Sub(n, big.NewInt(1))} {
		ct, err := pk.Encrypt(rand.Reader, m)
		require.NoError(t, err)
		d, err := sk.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, 0, m.Cmp(d))
	}
}

func TestAddition(t *testing.T) {
	pk, sk := fixedKey(t)
	n := pk.N().Big()

	for _, length := range []int{1, 2, 8} {
		sum := new(big.Int)
		cts := make([]*Ciphertext, length)
		for i := range cts {
			m := randomPlaintext(t, pk)
			sum.Add(sum, m)
			var err error
			cts[i], err = pk.Encrypt(rand.Reader, m)
			require.NoError(t, err)
		}
		sum.Mod(sum, n)

		ctSum, err := pk.Addition(cts...)
		require.NoError(t, err)
		d, err := sk.Decrypt(ctSum)
		require.NoError(t, err)
		assert.Equal(t, 0, sum.Cmp(d), "addition of %d ciphertexts", length)
	}

	ct, err := pk.Encrypt(rand.Reader, big.NewInt(3))
	require.NoError(t, err)
	same, err := pk.Addition(ct)
	require.NoError(t, err)
	assert.True(t, same.Equal(ct), "addition of a single ciphertext is the identity")
	assert.NotSame(t, ct, same)

	_, err = pk.Addition()
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
	_, err = pk.Addition(ct, nil)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestMultiply(t *testing.T) {
	pk, sk := fixedKey(t)
	n := pk.N().Big()

	m := randomPlaintext(t, pk)
	ct, err := pk.Encrypt(rand.Reader, m)
	require.NoError(t, err)

	// D(E(m)ᵐ) = m² (mod N)
	ctSquared, err := pk.Multiply(ct, m)
	require.NoError(t, err)
	d, err := sk.Decrypt(ctSquared)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Exp(m, big.NewInt(2), n).Cmp(d))

	zero, err := pk.Multiply(ct, big.NewInt(0))
	require.NoError(t, err)
	d, err = sk.Decrypt(zero)
	require.NoError(t, err)
	assert.Zero(t, d.Sign())

	for _, k := range []*big.Int{n, big.NewInt(-1), nil} {
		_, err = pk.Multiply(ct, k)
		assert.ErrorIs(t, err, ErrInvalidScalar)
	}
	_, err = pk.Multiply(nil, big.NewInt(2))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

// Encrypts 5, 2 and -3 under N = 143, as a caller would with signed values.
func TestSmallKeyScenario(t *testing.T) {
	pk, sk := smallKey(t)
	n := pk.N().Big()

	m1 := big.NewInt(5)
	m2 := big.NewInt(2)
	m3 := new(big.Int).Mod(big.NewInt(-3), n)
	require.EqualValues(t, 140, m3.Int64())

	c1, err := pk.Encrypt(rand.Reader, m1)
	require.NoError(t, err)
	c2, err := pk.Encrypt(rand.Reader, m2)
	require.NoError(t, err)
	c3, err := pk.Encrypt(rand.Reader, m3)
	require.NoError(t, err)

	sum, err := pk.Addition(c1, c2, c3)
	require.NoError(t, err)
	d, err := sk.Decrypt(sum)
	require.NoError(t, err)
	// (5 + 2 + 140) mod 143
	assert.EqualValues(t, 4, d.Int64())

	mul, err := pk.Multiply(c1, m2)
	require.NoError(t, err)
	d, err = sk.Decrypt(mul)
	require.NoError(t, err)
	assert.EqualValues(t, 10, d.Int64())
}

func TestBatchRoundTrip(t *testing.T) {
	for _, bitLength := range []int{8, 128} {
		pk, sk, err := GenerateKeyPair(rand.Reader, bitLength, nil)
		require.NoError(t, err)

		ms := make([]*big.Int, 10)
		cts := make([]*Ciphertext, len(ms))
		for i := range ms {
			ms[i] = randomPlaintext(t, pk)
			cts[i], err = pk.Encrypt(rand.Reader, ms[i])
			require.NoError(t, err)
		}
		for i := range cts {
			d, err := sk.Decrypt(cts[i])
			require.NoError(t, err)
			assert.Equal(t, 0, ms[i].Cmp(d), "D(E(r)) should be r")
		}
	}
}

func TestKeyMismatch(t *testing.T) {
	pk1, sk1 := fixedKey(t)
	pk2, sk2, err := GenerateKeyPair(rand.Reader, 64, nil)
	require.NoError(t, err)

	ct1, err := pk1.Encrypt(rand.Reader, big.NewInt(7))
	require.NoError(t, err)
	ct2, err := pk2.Encrypt(rand.Reader, big.NewInt(7))
	require.NoError(t, err)

	_, err = sk1.Decrypt(ct2)
	assert.ErrorIs(t, err, ErrDecryptionMismatch)

	// ct1 is too large for the smaller key
	_, err = sk2.Decrypt(ct1)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = pk1.Addition(ct1, ct2)
	assert.ErrorIs(t, err, ErrKeyMismatch)
	_, err = pk1.Multiply(ct2, big.NewInt(2))
	assert.ErrorIs(t, err, ErrKeyMismatch)
}

func TestConcurrentUse(t *testing.T) {
	pk, sk := fixedKey(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := big.NewInt(int64(i))
			ct, err := pk.Encrypt(rand.Reader, m)
			if !assert.NoError(t, err) {
				return
			}
			ct, err = pk.Multiply(ct, big.NewInt(3))
			if !assert.NoError(t, err) {
				return
			}
			d, err := sk.Decrypt(ct)
			if assert.NoError(t, err) {
				assert.EqualValues(t, 3*i, d.Int64())
			}
		}(i)
	}
	wg.Wait()
}

// Shared keys and ciphertexts are only read, so this must stay clean under go test -race.
func TestConcurrentSharedCiphertext(t *testing.T) {
	pk, sk := fixedKey(t)
	ct, err := pk.EncryptWithNonce(big.NewInt(21), big.NewInt(5))
	require.NoError(t, err)
	copied := ct.Clone()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sum, err := pk.Addition(ct, ct)
			if !assert.NoError(t, err) {
				return
			}
			prod, err := pk.Multiply(ct, big.NewInt(2))
			if !assert.NoError(t, err) {
				return
			}
			assert.True(t, sum.Equal(prod))
			assert.True(t, ct.Equal(copied))
			assert.NoError(t, pk.ValidateCiphertext(ct))

			d, err := sk.Decrypt(ct)
			if assert.NoError(t, err) {
				assert.EqualValues(t, 21, d.Int64())
			}
			d, err = sk.Decrypt(sum)
			if assert.NoError(t, err) {
				assert.EqualValues(t, 42, d.Int64())
			}
			assert.NoError(t, sk.Validate())
			_, err = pk.Encrypt(rand.Reader, big.NewInt(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestZeroKey(t *testing.T) {
	pk, sk := fixedKey(t)
	ct, err := pk.Encrypt(rand.Reader, big.NewInt(1))
	require.NoError(t, err)

	var zero PublicKey
	_, err = zero.Encrypt(rand.Reader, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = zero.EncryptWithNonce(big.NewInt(1), big.NewInt(2))
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = zero.Addition(ct, ct)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = zero.Multiply(ct, big.NewInt(2))
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = zero.Ciphertext(big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, zero.ValidateCiphertext(ct), ErrInvalidKey)

	var zeroSk PrivateKey
	_, err = zeroSk.Decrypt(ct)
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, zeroSk.Validate(), ErrInvalidKey)

	detached := &PrivateKey{pk: &zero, lambda: sk.lambda, mu: sk.mu}
	_, err = detached.Decrypt(ct)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestValidate(t *testing.T) {
	pk, sk := fixedKey(t)
	require.NoError(t, sk.Validate())

	// λ + 1 is still coprime to N, but does not annihilate the nonces
	lambda := new(big.Int).Add(sk.lambda.Big(), big.NewInt(1))
	bad := &PrivateKey{pk: pk, lambda: new(saferith.Nat).SetBig(lambda, lambda.BitLen()), mu: sk.mu}
	assert.Error(t, bad.Validate())
}

var (
	resultCt *Ciphertext
	resultM  *big.Int
)

func BenchmarkGenerateKeyPair(b *testing.B) {
	pl := pool.NewPool(0)
	defer pl.TearDown()
	for i := 0; i < b.N; i++ {
		_, _, _ = GenerateKeyPair(rand.Reader, 1024, pl)
	}
}

func BenchmarkEncrypt(b *testing.B) {
	pk, _, err := GenerateKeyPair(rand.Reader, 2048, pool.NewPool(0))
	require.NoError(b, err)
	m := randomPlaintext(b, pk)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resultCt, _ = pk.Encrypt(rand.Reader, m)
	}
}

func BenchmarkDecrypt(b *testing.B) {
	pk, sk, err := GenerateKeyPair(rand.Reader, 2048, pool.NewPool(0))
	require.NoError(b, err)
	ct, err := pk.Encrypt(rand.Reader, randomPlaintext(b, pk))
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resultM, _ = sk.Decrypt(ct)
	}
}
