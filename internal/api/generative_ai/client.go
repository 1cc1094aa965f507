package generativeAI

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// Task types understood by the Gemini embedding models.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

var ErrEmptyResponse = errors.New("model returned an empty response")

// LLMClient is the subset of the Gemini API the service relies on.
type LLMClient interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
	EmbedContent(ctx context.Context, text, taskType string, dim int) ([]float32, error)
}

type AIClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

var _ LLMClient = (*AIClient)(nil)

func NewAIClient(ctx context.Context, apiKey, model, embeddingModel string) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if apiKey == "" {
		err := errors.New("GOOGLE_GEMINI_API_KEY is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	span.SetStatus(codes.Ok, "AI client created successfully")
	return &AIClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

func (ai *AIClient) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateContent", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate content")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		span.SetStatus(codes.Error, "Empty response")
		return "", ErrEmptyResponse
	}
	span.SetAttributes(attribute.Int("response.length", len(text)))
	span.SetStatus(codes.Ok, "Content generated successfully")
	return text, nil
}

// EmbedContent returns the embedding of text. A positive dim asks the model
// to truncate its output to that many dimensions.
func (ai *AIClient) EmbedContent(ctx context.Context, text, taskType string, dim int) ([]float32, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "EmbedContent", trace.WithAttributes(
		attribute.Int("text.length", len(text)),
		attribute.String("model", ai.embeddingModel),
		attribute.String("task_type", taskType),
	))
	defer span.End()

	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if dim > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(dim))
	}

	resp, err := ai.client.Models.EmbedContent(ctx, ai.embeddingModel, genai.Text(text), cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to embed content")
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		span.SetStatus(codes.Error, "Empty embedding")
		return nil, ErrEmptyResponse
	}

	span.SetStatus(codes.Ok, "Content embedded successfully")
	return resp.Embeddings[0].Values, nil
}
