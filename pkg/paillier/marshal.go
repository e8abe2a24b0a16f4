package paillier

import (
	"encoding"
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
)

var (
	_ encoding.BinaryMarshaler   = (*PublicKey)(nil)
	_ encoding.BinaryUnmarshaler = (*PublicKey)(nil)
	_ encoding.BinaryMarshaler   = (*PrivateKey)(nil)
	_ encoding.BinaryUnmarshaler = (*PrivateKey)(nil)
)

// Only the numeric values are encoded, big-endian.
type publicKeyMarshal struct {
	N []byte
}

type privateKeyMarshal struct {
	N, Lambda, Mu []byte
}

func publicKeyFromBytes(nBytes []byte) (*PublicKey, error) {
	if len(nBytes) == 0 {
		return nil, errors.New("paillier: missing modulus")
	}
	n := saferith.ModulusFromBytes(nBytes)
	if err := validateModulus(n); err != nil {
		return nil, err
	}
	return NewPublicKey(n), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(&publicKeyMarshal{N: pk.n.Bytes()})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	var x publicKeyMarshal
	if err := cbor.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("paillier: unmarshal public key: %w", err)
	}
	newPk, err := publicKeyFromBytes(x.N)
	if err != nil {
		return err
	}
	*pk = *newPk
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (sk *PrivateKey) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(&privateKeyMarshal{
		N:      sk.pk.n.Bytes(),
		Lambda: sk.lambda.Bytes(),
		Mu:     sk.mu.Bytes(),
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The decoded key is validated against its own public key before being accepted.
func (sk *PrivateKey) UnmarshalBinary(data []byte) error {
	var x privateKeyMarshal
	if err := cbor.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("paillier: unmarshal private key: %w", err)
	}
	pk, err := publicKeyFromBytes(x.N)
	if err != nil {
		return err
	}
	if len(x.Lambda) == 0 || len(x.Mu) == 0 {
		return errors.New("paillier: missing private key values")
	}
	newSk, err := newPrivateKey(pk, new(saferith.Nat).SetBytes(x.Lambda))
	if err != nil {
		return fmt.Errorf("paillier: invalid private key: %w", err)
	}
	if newSk.mu.Eq(new(saferith.Nat).SetBytes(x.Mu)) != 1 {
		return errors.New("paillier: invalid private key: μ is inconsistent with λ")
	}
	if err = newSk.Validate(); err != nil {
		return fmt.Errorf("paillier: invalid private key: %w", err)
	}
	*sk = *newSk
	return nil
}
