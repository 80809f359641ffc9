package llm

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

const embeddingDimensions = 768

type GenAIGemini struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

func NewGenAIGemini(ctx context.Context, apiKey, modelName string) (*GenAIGemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-3-flash-preview"
	}
	return &GenAIGemini{client: c, model: modelName, embeddingModel: "text-embedding-004"}, nil
}

func (g *GenAIGemini) Close() error { return nil }

func (g *GenAIGemini) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGenAISchema(req.Schema)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (g *GenAIGemini) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(embeddingDimensions)
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

func toGenAISchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Items:       toGenAISchema(s.Items),
		Required:    s.Required,
	}
	if s.Nullable {
		out.Nullable = genai.Ptr(true)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGenAISchema(v)
		}
	}
	return out
}
