package kle

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Binary snapshot encoding. Where KLE JSON is the stateful interchange
// format, the msgpack snapshot stores the fully resolved model — no running
// template, no alignment packing — for callers that persist or ship decoded
// keyboards between services.

// MarshalBinary encodes the keyboard as a msgpack snapshot.
func MarshalBinary(kb *Keyboard) ([]byte, error) {
	data, err := msgpack.Marshal(kb)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a msgpack snapshot produced by MarshalBinary.
func UnmarshalBinary(data []byte) (*Keyboard, error) {
	kb := NewKeyboard()
	if err := msgpack.Unmarshal(data, kb); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return kb, nil
}

var (
	_ msgpack.CustomEncoder = (*Decimal)(nil)
	_ msgpack.CustomDecoder = (*Decimal)(nil)
)

// EncodeMsgpack writes the canonical decimal string, which round-trips
// exactly regardless of magnitude.
func (d Decimal) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(d.String())
}

// DecodeMsgpack reads a decimal previously written by EncodeMsgpack.
func (d *Decimal) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	v, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
