package connector

import (
	"encoding/json"

	"github.com/kbukum/connector/command"
)

// Deserializer converts a raw response into a typed value.
type Deserializer[T any] interface {
	Deserialize(raw string) (T, error)
}

// DeserializerFunc adapts a function to Deserializer.
type DeserializerFunc[T any] func(raw string) (T, error)

// Deserialize calls f.
func (f DeserializerFunc[T]) Deserialize(raw string) (T, error) { return f(raw) }

// String returns the identity deserializer.
func String() Deserializer[string] {
	return DeserializerFunc[string](func(raw string) (string, error) { return raw, nil })
}

// JSON returns a deserializer decoding raw as JSON into T.
func JSON[T any]() Deserializer[T] {
	return DeserializerFunc[T](func(raw string) (T, error) {
		var v T
		err := json.Unmarshal([]byte(raw), &v)
		return v, err
	})
}

// Descriptor is one call: where it goes, what it runs, how to read the answer.
type Descriptor[T any] struct {
	Endpoint     EndpointConfig
	Deserializer Deserializer[T]
	Command      command.Command
}
