package service

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"

	"helpbot/config"
	"helpbot/metrics"
	"helpbot/platform"
)

// Responder produces an AI reply for a message's content.
type Responder interface {
	Enabled() bool
	// Generate returns the reply, or "" when the provider failed or answered
	// with nothing. Errors are logged, never returned.
	Generate(ctx context.Context, prompt string) string
}

// OpenAIResponder asks a chat completion model for a single reply.
type OpenAIResponder struct {
	client       *openai.Client
	model        string
	temperature  float64
	maxTokens    int64
	systemPrompt string
	logger       *logrus.Logger
}

// NewResponder returns a disabled responder when no API key is configured.
func NewResponder(cfg config.OpenAI, logger *logrus.Logger) Responder {
	if cfg.APIKey == "" {
		logger.Warnf("[%s] OPENAI_API_KEY not configured, AI responder disabled", "startup")
		return DisabledResponder{}
	}
	return NewOpenAIResponder(platform.NewLLMClient(cfg), cfg, logger)
}

func NewOpenAIResponder(client *openai.Client, cfg config.OpenAI, logger *logrus.Logger) *OpenAIResponder {
	return &OpenAIResponder{
		client:       client,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		logger:       logger,
	}
}

func (r *OpenAIResponder) Enabled() bool {
	return true
}

func (r *OpenAIResponder) Generate(ctx context.Context, prompt string) string {
	requestId := platform.RequestID(ctx)

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(r.systemPrompt),
			openai.UserMessage(prompt),
		}),
		Model:       openai.F(openai.ChatModel(r.model)),
		Temperature: openai.F(r.temperature),
		MaxTokens:   openai.F(r.maxTokens),
	}

	completion, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		r.logger.Errorf("[%s] OpenAI API error, %s", requestId, err)
		metrics.AIRequests.WithLabelValues(metrics.Result(false)).Inc()
		return ""
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		r.logger.Warnf("[%s] OpenAI returned an empty completion", requestId)
		metrics.AIRequests.WithLabelValues(metrics.Result(false)).Inc()
		return ""
	}

	r.logger.Infof("[%s] OpenAI response generated, model: %s", requestId, completion.Model)
	metrics.AIRequests.WithLabelValues(metrics.Result(true)).Inc()
	return completion.Choices[0].Message.Content
}

// DisabledResponder is used when no AI credential is configured.
type DisabledResponder struct{}

func (DisabledResponder) Enabled() bool { return false }

func (DisabledResponder) Generate(context.Context, string) string { return "" }
