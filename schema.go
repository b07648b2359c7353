package main

import (
	"encoding/json"
	"net/http"

	"github.com/iancoleman/orderedmap"
	"github.com/invopop/jsonschema"
)

// clientMessages lists every client -> server message and its payload;
// a nil payload means the message carries no data
var clientMessages = []struct {
	T       string
	Payload interface{}
}{
	{MsgRegister, RegisterMsg{}},
	{MsgLogin, LoginMsg{}},
	{MsgAuth, AuthMsg{}},
	{MsgJoin, JoinMsg{}},
	{MsgPlace, PlaceIntent{}},
	{MsgSpawn, SpawnIntent{}},
	{MsgMove, MoveIntent{}},
	{MsgList, nil},
}

// BuildProtocolSchema returns a JSON Schema accepting any valid client frame
func BuildProtocolSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	variants := make([]*jsonschema.Schema, 0, len(clientMessages))
	for _, msg := range clientMessages {
		props := orderedmap.New()
		props.Set("t", &jsonschema.Schema{Type: "string", Enum: []interface{}{msg.T}})
		env := &jsonschema.Schema{
			Type:       "object",
			Title:      msg.T,
			Properties: props,
			Required:   []string{"t"},
		}
		if msg.Payload != nil {
			payload := reflector.Reflect(msg.Payload)
			payload.Version = ""
			props.Set("d", payload)
			env.Required = append(env.Required, "d")
		}
		variants = append(variants, env)
	}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Strategy client protocol",
		Description: "Envelopes a client may send over /ws. The same field names apply to msgpack frames.",
		OneOf:       variants,
	}
}

// marshalProtocolSchema renders the schema as indented JSON
func marshalProtocolSchema() ([]byte, error) {
	data, err := json.MarshalIndent(BuildProtocolSchema(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func serveProtocolSchema(w http.ResponseWriter, r *http.Request) {
	data, err := marshalProtocolSchema()
	if err != nil {
		Log.WithError(err).Error("schema marshal failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(data)
}
