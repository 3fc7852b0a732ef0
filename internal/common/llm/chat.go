// internal/common/llm/chat.go
package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"zomato-recommender/internal/common/config"
	"zomato-recommender/internal/common/errors"
	commonhttp "zomato-recommender/internal/common/http"
	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/common/metrics"
)

const MissingKeyMessage = "Missing GROQ_API_KEY in environment (.env)"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatClient talks to Groq, or any other OpenAI-compatible provider.
type ChatClient struct {
	cfg    config.LLMConfig
	client *commonhttp.Client
	logger logger.Logger
}

func NewChatClient(cfg config.LLMConfig, log logger.Logger) *ChatClient {
	return &ChatClient{
		cfg:    cfg,
		client: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger: log,
	}
}

// NewChatClientWithHTTPClient is used by tests to inject a fake transport.
func NewChatClientWithHTTPClient(cfg config.LLMConfig, hc *http.Client, log logger.Logger) *ChatClient {
	return &ChatClient{
		cfg:    cfg,
		client: commonhttp.NewWithHTTPClient(hc),
		logger: log,
	}
}

func (c *ChatClient) Validate() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return errors.NewConfigurationMissingError(MissingKeyMessage)
	}
	if strings.TrimSpace(c.cfg.Model) == "" {
		return errors.NewConfigurationMissingError("Missing GROQ_MODEL in environment (.env)")
	}
	return nil
}

func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.GetDuration(c.cfg.Timeout))
		defer cancel()
	}

	req := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	start := time.Now()
	var resp chatCompletionResponse
	err := c.client.DoJSON(ctx, http.MethodPost, url, headers, req, &resp)
	elapsed := time.Since(start)

	if err != nil {
		mapped := c.mapError(err)
		metrics.LLMRequestDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		c.logger.Warn("chat completion failed", map[string]interface{}{
			"model":      c.cfg.Model,
			"durationMs": elapsed.Milliseconds(),
			"errorCode":  string(errors.CodeOf(mapped)),
			"error":      err,
		})
		return "", mapped
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		return "", errors.NewLLMTransportError(fmt.Errorf("chat completion returned no choices"))
	}

	metrics.LLMRequestDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
	c.logger.Debug("chat completion succeeded", map[string]interface{}{
		"model":      c.cfg.Model,
		"durationMs": elapsed.Milliseconds(),
	})

	return resp.Choices[0].Message.Content, nil
}

func (c *ChatClient) mapError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewLLMTimeoutError(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewLLMTimeoutError(err)
	}
	return errors.NewLLMTransportError(err)
}
