package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/paillier/pkg/math/sample"
	"github.com/taurusgroup/paillier/pkg/paillier"
	"github.com/taurusgroup/paillier/pkg/pool"
	"golang.org/x/sync/errgroup"
)

var errMismatch = errors.New("decrypted value does not match")

// encodeSigned maps x to its representative in [0, n), so that negative values can be encrypted.
func encodeSigned(x int64, n *big.Int) *big.Int {
	return new(big.Int).Mod(big.NewInt(x), n)
}

// decodeSigned interprets m ∈ [0, n) as a signed value in (-n/2, n/2].
func decodeSigned(m, n *big.Int) *big.Int {
	half := new(big.Int).Rsh(n, 1)
	if m.Cmp(half) > 0 {
		return new(big.Int).Sub(m, n)
	}
	return new(big.Int).Set(m)
}

// randomPlaintext samples a value in (1, n), skipping the trivial plaintexts 0 and 1.
func randomPlaintext(rand io.Reader, n *big.Int) (*big.Int, error) {
	bound := new(big.Int).Sub(n, big.NewInt(2))
	m, err := sample.ModN(rand, saferith.ModulusFromNat(new(saferith.Nat).SetBig(bound, bound.BitLen())))
	if err != nil {
		return nil, err
	}
	x := m.Big()
	return x.Add(x, big.NewInt(2)), nil
}

func generate(log zerolog.Logger, bits int, pl *pool.Pool) (*paillier.PublicKey, *paillier.PrivateKey, error) {
	kg := paillier.KeyGenerator{Rand: rand.Reader, Pool: pl, Log: log}
	pk, sk, err := kg.Generate(bits)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Int("bits", pk.BitLength()).Stringer("fingerprint", pk.Fingerprint()).Msg("generated key pair")
	return pk, sk, nil
}

// Demo encrypts 5, 2 and -3, then checks that their encrypted sum decrypts to 4,
// and that 5 encrypted then multiplied by 2 decrypts to 10.
func Demo(w io.Writer, log zerolog.Logger, bits int, pl *pool.Pool) error {
	pk, sk, err := generate(log, bits, pl)
	if err != nil {
		return err
	}
	n := pk.N().Big()
	fmt.Fprintf(w, "Modulus n has %d bits\n", pk.BitLength())

	values := []int64{5, 2, -3}
	cts := make([]*paillier.Ciphertext, 0, len(values))
	for _, v := range values {
		ct, err := pk.Encrypt(rand.Reader, encodeSigned(v, n))
		if err != nil {
			return fmt.Errorf("encrypt %d: %w", v, err)
		}
		fmt.Fprintf(w, "E(%d) = %s\n", v, ct)
		cts = append(cts, ct)
	}

	sum, err := pk.Addition(cts...)
	if err != nil {
		return err
	}
	decSum, err := sk.Decrypt(sum)
	if err != nil {
		return err
	}
	signedSum := decodeSigned(decSum, n)
	fmt.Fprintf(w, "D(E(5)⋅E(2)⋅E(-3)) = %d\n", signedSum)
	if signedSum.Cmp(big.NewInt(4)) != 0 {
		return fmt.Errorf("%w: sum is %d, expected 4", errMismatch, signedSum)
	}

	product, err := pk.Multiply(cts[0], encodeSigned(values[1], n))
	if err != nil {
		return err
	}
	decProduct, err := sk.Decrypt(product)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "D(E(5)²) = %d\n", decProduct)
	if decProduct.Cmp(big.NewInt(10)) != 0 {
		return fmt.Errorf("%w: product is %d, expected 10", errMismatch, decProduct)
	}
	return nil
}

// Batch encrypts and decrypts count random plaintexts concurrently under a single key.
func Batch(ctx context.Context, w io.Writer, log zerolog.Logger, bits, count int, pl *pool.Pool) error {
	if count < 0 {
		return fmt.Errorf("invalid count %d", count)
	}
	pk, sk, err := generate(log, bits, pl)
	if err != nil {
		return err
	}

	plaintexts := make([]*big.Int, count)
	for i := range plaintexts {
		if plaintexts[i], err = randomPlaintext(rand.Reader, pk.N().Big()); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range plaintexts {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ct, err := pk.Encrypt(rand.Reader, plaintexts[i])
			if err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
			m, err := sk.Decrypt(ct)
			if err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
			if m.Cmp(plaintexts[i]) != 0 {
				return fmt.Errorf("%w: value %d", errMismatch, i)
			}
			log.Debug().Int("index", i).Msg("round trip")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d values encrypted and decrypted under a %d bit key\n", count, pk.BitLength())
	return nil
}

// Keygen generates a key pair, and prints the public key in its binary encoding.
func Keygen(w io.Writer, log zerolog.Logger, bits int, pl *pool.Pool) error {
	pk, _, err := generate(log, bits, pl)
	if err != nil {
		return err
	}
	data, err := pk.MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "bits:        %d\n", pk.BitLength())
	fmt.Fprintf(w, "fingerprint: %s\n", pk.Fingerprint())
	fmt.Fprintf(w, "public key:  %x\n", data)
	return nil
}
