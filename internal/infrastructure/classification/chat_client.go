package classification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
)

// DefaultPrompt is used when no prompt file is configured.
const DefaultPrompt = `You are a meteorologist identifying clouds and sky phenomena.
If the photo shows no cloud, sky or atmospheric phenomenon, reply with exactly: NO_CLOUD
Otherwise identify the single most prominent phenomenon and reply in this format:
**Family**: the altitude family
**Genus**: the genus and a one line definition
**Species**: the species or variety and how it differs within the genus
**Features**: what this photo actually shows
**Weather**: the weather this usually signals
**Knowledge**: one short piece of trivia
**Confidence**: an integer from 1 to 10`

// ChatConfig configures an OpenAI-compatible chat completions endpoint.
type ChatConfig struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
	Prompt    string
	Timeout   time.Duration
}

// ChatClient classifies photos through a vision chat completions API.
type ChatClient struct {
	config     ChatConfig
	httpClient *http.Client
	logger     *logging.ChanneledLogger
}

// NewChatClient creates a ChatClient. An empty prompt falls back to
// DefaultPrompt.
func NewChatClient(config ChatConfig, logger *logging.ChanneledLogger) *ChatClient {
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	return &ChatClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// LoadPrompt reads a prompt file, returning DefaultPrompt for an empty path.
func LoadPrompt(path string) (string, error) {
	if path == "" {
		return DefaultPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return prompt, nil
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Classify sends the photo and prompt to the model and parses its reply.
func (c *ChatClient) Classify(ctx context.Context, photo Photo) (*Result, error) {
	if c.config.APIKey == "" || c.config.Endpoint == "" {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	mime := photo.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	dataURI := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(photo.Bytes)

	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURI}},
				{Type: "text", Text: c.config.Prompt},
			},
		}},
		MaxTokens: c.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	c.logger.Classifier().Debug("Sending classification request", "model", c.config.Model, "photoBytes", len(photo.Bytes))

	res, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Classifier().Warn("Classification request timed out", "duration", time.Since(start))
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		c.logger.Classifier().Error("Classification request failed", "error", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if res.StatusCode != http.StatusOK {
		message := "classification service temporarily unavailable"
		var upstream chatErrorResponse
		if json.Unmarshal(payload, &upstream) == nil && upstream.Error.Message != "" {
			message = upstream.Error.Message
		}
		c.logger.Classifier().Error("Classification service returned error", "status", res.StatusCode, "message", message)
		return nil, &ServiceError{Status: res.StatusCode, Message: message}
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil || len(parsed.Choices) == 0 {
		c.logger.Classifier().Error("Malformed classification response", "status", res.StatusCode)
		return nil, &ServiceError{Status: res.StatusCode, Message: "malformed classification response"}
	}

	result := ParseContent(parsed.Choices[0].Message.Content)
	c.logger.Classifier().Info("Classification completed",
		"noSubject", result.NoSubject,
		"genus", result.Analysis.Genus,
		"confidence", result.Confidence,
		"duration", time.Since(start))
	return result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
