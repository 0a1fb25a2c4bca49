package platform

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"helpbot/config"
)

// NewLLMClient builds an OpenAI client. Failed calls are not retried; the
// caller treats any error as "no AI response".
func NewLLMClient(cfg config.OpenAI, opts ...option.RequestOption) *openai.Client {
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	return openai.NewClient(append(base, opts...)...)
}
