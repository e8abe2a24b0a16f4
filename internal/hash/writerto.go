package hash

import "io"

// WriterToWithDomain is a value that can write its canonical encoding, and
// names the domain under which that encoding should be hashed.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, unique for each implementor.
	Domain() string
}

// writeWithDomain writes `(<domain><data>)`, so that two values with the same
// encoding but different domains never feed the same bytes to the hash.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	if _, err := io.WriteString(w, "("+object.Domain()); err != nil {
		return err
	}
	if _, err := object.WriteTo(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, ")")
	return err
}

// BytesWithDomain annotates a chunk of data with a domain.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}
