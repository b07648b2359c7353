package main

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes a connection's frames. The json tags of the protocol types
// name the fields in both encodings.
type Codec interface {
	Name() string
	// Binary reports whether frames go out as binary WebSocket messages
	Binary() bool
	Marshal(v interface{}) ([]byte, error)
	// DecodeEnvelope splits an incoming frame into its type and payload
	DecodeEnvelope(raw []byte) (string, []byte, error)
	Unmarshal(payload []byte, v interface{}) error
}

// codecFor returns the codec selected by the enc query parameter
func codecFor(name string) Codec {
	if name == "msgpack" {
		return msgpackCodec{}
	}
	return jsonCodec{}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) DecodeEnvelope(raw []byte) (string, []byte, error) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, err
	}
	return env.T, env.D, nil
}

func (jsonCodec) Unmarshal(payload []byte, v interface{}) error {
	return json.Unmarshal(payload, v)
}

type msgpackCodec struct{}

// msgpackInEnvelope mirrors InEnvelope; RawMessage defers payload decoding
type msgpackInEnvelope struct {
	T string             `json:"t"`
	D msgpack.RawMessage `json:"d,omitempty"`
}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c msgpackCodec) DecodeEnvelope(raw []byte) (string, []byte, error) {
	var env msgpackInEnvelope
	if err := c.Unmarshal(raw, &env); err != nil {
		return "", nil, err
	}
	return env.T, env.D, nil
}

func (msgpackCodec) Unmarshal(payload []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
