package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Generate streams the answer and joins the text parts.
func (v *VertexGemini) Generate(ctx context.Context, req Request) (string, error) {
	m := v.client.GenerativeModel(v.modelName)
	if req.SystemInstruction != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(req.SystemInstruction)}}
	}
	if req.Schema != nil {
		m.ResponseMIMEType = "application/json"
		m.ResponseSchema = toVertexSchema(req.Schema)
	}

	var full strings.Builder
	it := m.GenerateContentStream(ctx, vertexgenai.Text(req.Prompt))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			return full.String(), nil
		}
		if err != nil {
			return "", err
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					full.WriteString(string(t))
				}
			}
		}
	}
}

func toVertexSchema(s *Schema) *vertexgenai.Schema {
	if s == nil {
		return nil
	}
	out := &vertexgenai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Items:       toVertexSchema(s.Items),
		Required:    s.Required,
		Nullable:    s.Nullable,
	}
	switch s.Type {
	case TypeString:
		out.Type = vertexgenai.TypeString
	case TypeNumber:
		out.Type = vertexgenai.TypeNumber
	case TypeInteger:
		out.Type = vertexgenai.TypeInteger
	case TypeBoolean:
		out.Type = vertexgenai.TypeBoolean
	case TypeArray:
		out.Type = vertexgenai.TypeArray
	case TypeObject:
		out.Type = vertexgenai.TypeObject
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*vertexgenai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toVertexSchema(v)
		}
	}
	return out
}
