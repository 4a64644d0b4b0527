// Package codec encodes cache entities for storage backends and the message bus.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects the wire/storage format.
type Encoding uint8

const (
	MsgPack Encoding = iota
	JSON
)

func (e Encoding) String() string {
	switch e {
	case MsgPack:
		return "msgpack"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// ParseEncoding is case-insensitive.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "msgpack", "":
		return MsgPack, nil
	case "json":
		return JSON, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

// MarshalText lets Encoding sit in env-tagged config structs.
func (e Encoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Encoding) UnmarshalText(text []byte) error {
	parsed, err := ParseEncoding(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Codec converts values to and from bytes.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Encoding() Encoding
}

// For returns the codec for enc.
func For(enc Encoding) (Codec, error) {
	switch enc {
	case MsgPack:
		return msgpackCodec{}, nil
	case JSON:
		return jsonCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %s", enc)
	}
}

type msgpackCodec struct{}

func (msgpackCodec) Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return data, nil
}

func (msgpackCodec) Decode(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}

func (msgpackCodec) Encoding() Encoding { return MsgPack }

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (jsonCodec) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

func (jsonCodec) Encoding() Encoding { return JSON }

// stamped is the stored frame when ISO-8601 timestamps are enabled.
type stamped struct {
	TsISO string `json:"ts_iso" msgpack:"ts_iso"`
	Data  []byte `json:"data" msgpack:"data"`
}

// Stamp encodes v and wraps it with tsNanos formatted as RFC3339Nano (UTC).
func Stamp(c Codec, v any, tsNanos int64) ([]byte, error) {
	inner, err := c.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.Encode(stamped{
		TsISO: time.Unix(0, tsNanos).UTC().Format(time.RFC3339Nano),
		Data:  inner,
	})
}

// Unstamp reverses Stamp, returning the formatted timestamp.
func Unstamp(c Codec, data []byte, v any) (string, error) {
	var frame stamped
	if err := c.Decode(data, &frame); err != nil {
		return "", err
	}
	if len(frame.Data) == 0 {
		return "", fmt.Errorf("stamped frame has no data")
	}
	if err := c.Decode(frame.Data, v); err != nil {
		return "", err
	}
	return frame.TsISO, nil
}
