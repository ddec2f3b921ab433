// Package transport streams chat completions from an OpenAI-compatible
// inference provider.
package transport

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"pyramid/internal/session"
)

// DefaultBaseURL routes requests through the HuggingFace inference router to
// the "together" provider.
const DefaultBaseURL = "https://router.huggingface.co/together/v1"

type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

type Client struct {
	api    *openai.Client
	logger *log.Logger
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{api: openai.NewClientWithConfig(cfg), logger: logger}
}

// StreamCompletion yields text increments in arrival order. A failure is
// yielded once as the error of the final pair, after which the sequence ends.
// Nothing is sent until the sequence is ranged over.
// A stream that closes without the [DONE] marker ends normally.
func (c *Client) StreamCompletion(
	ctx context.Context,
	model string,
	messages []session.Message,
	maxTokens int,
	temperature float64,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := openai.ChatCompletionRequest{
			Model:       model,
			Messages:    toChatMessages(messages),
			MaxTokens:   maxTokens,
			Temperature: float32(temperature),
			Stream:      true,
		}
		c.logger.Debug("opening completion stream", "model", model, "messages", len(messages))
		stream, err := c.api.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", wrap(model, err))
			return
		}
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", wrap(model, err))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			content := chunk.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			if !yield(content, nil) {
				return
			}
		}
	}
}

func toChatMessages(messages []session.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == session.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
