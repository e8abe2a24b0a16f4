package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/paillier/pkg/pool"
)

func TestSignedEncoding(t *testing.T) {
	n := big.NewInt(143)
	for _, x := range []int64{0, 1, 5, 71, -1, -3, -71} {
		m := encodeSigned(x, n)
		assert.True(t, m.Sign() >= 0 && m.Cmp(n) < 0, "%d encodes outside [0, n)", x)
		assert.Zero(t, big.NewInt(x).Cmp(decodeSigned(m, n)), "x = %d", x)
	}
	assert.Zero(t, big.NewInt(140).Cmp(encodeSigned(-3, n)))
	assert.Zero(t, big.NewInt(-71).Cmp(decodeSigned(big.NewInt(72), n)))
}

func TestRandomPlaintext(t *testing.T) {
	n := big.NewInt(143)
	seen := make(map[int64]bool)
	for i := 0; i < 5000; i++ {
		m, err := randomPlaintext(rand.Reader, n)
		require.NoError(t, err)
		require.True(t, m.Cmp(big.NewInt(1)) > 0 && m.Cmp(n) < 0, "%v is not in (1, n)", m)
		seen[m.Int64()] = true
	}
	assert.Len(t, seen, 141)
}

func TestDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Demo(&out, zerolog.Nop(), 128, nil))
	assert.Contains(t, out.String(), "Modulus n has 128 bits")
	assert.Contains(t, out.String(), "= 4\n")
	assert.Contains(t, out.String(), "= 10\n")
}

func TestBatch(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	var out bytes.Buffer
	require.NoError(t, Batch(context.Background(), &out, zerolog.Nop(), 64, 16, pl))
	assert.Contains(t, out.String(), "16 values")

	assert.Error(t, Batch(context.Background(), &out, zerolog.Nop(), 64, -1, pl))
}

func TestKeygen(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Keygen(&out, zerolog.Nop(), 64, nil))
	assert.Contains(t, out.String(), "bits:        64")
	assert.Contains(t, out.String(), "fingerprint: ")

	assert.Error(t, Keygen(&out, zerolog.Nop(), 4, nil))
}

func TestCommands(t *testing.T) {
	for _, args := range [][]string{
		{"demo", "--bits", "64", "--workers", "2"},
		{"batch", "--bits", "64", "--count", "4", "--workers", "-1"},
		{"keygen", "--bits", "32", "--log-level", "debug"},
	} {
		var out, errOut bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&errOut)
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.Execute(), "%v", args)
		assert.NotEmpty(t, out.String(), "%v", args)
	}

	rootCmd.SetArgs([]string{"keygen", "--bits", "32", "--log-level", "loud"})
	assert.Error(t, rootCmd.Execute())
}
