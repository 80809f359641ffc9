package llm

import "context"

// Request is a single one-shot generation call.
type Request struct {
	Prompt            string
	SystemInstruction string
	// Schema, when set, asks for a JSON response of that shape.
	Schema *Schema
}

type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// Embedder turns text into a vector for similarity lookups.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Type string

const (
	TypeString  Type = "STRING"
	TypeNumber  Type = "NUMBER"
	TypeInteger Type = "INTEGER"
	TypeBoolean Type = "BOOLEAN"
	TypeArray   Type = "ARRAY"
	TypeObject  Type = "OBJECT"
)

// Schema is a provider-neutral subset of the OpenAPI schema the Gemini
// endpoints accept as a response schema.
type Schema struct {
	Type        Type
	Description string
	Enum        []string
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
	Nullable    bool
}
