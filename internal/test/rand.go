package test

import (
	"io"

	"golang.org/x/crypto/sha3"
)

// Reader returns a deterministic stream of bytes derived from label.
//
// Two readers created with the same label produce the same output, which makes
// randomized tests reproducible. It must never be used outside of tests.
func Reader(label string) io.Reader {
	h := sha3.NewShake256()
	_, _ = h.Write([]byte("PAILLIER TEST READER"))
	_, _ = h.Write([]byte(label))
	return h
}
