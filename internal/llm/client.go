// Package llm is a single-call model inference proxy over the Anthropic
// Messages API, exposed in the Converse request/response shape.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/raysh454/webscrape/internal/logging"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNotConfigured  = errors.New("inference not configured")
	ErrInvalidRequest = errors.New("invalid converse request")
	ErrUpstream       = errors.New("inference upstream failed")
)

type Client struct {
	client sdk.Client
	cfg    Config
	logger logging.Logger
}

// New returns ErrNotConfigured when cfg has no API key.
func New(cfg Config, logger logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		client: sdk.NewClient(opts...),
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "llm"}),
	}, nil
}

// Converse validates req, applies defaults and makes one Messages call.
func (c *Client) Converse(ctx context.Context, req ConverseRequest) (*ConverseResponse, error) {
	if err := c.validate(&req); err != nil {
		return nil, err
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.ModelID),
		MaxTokens: req.InferenceConfig.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}
	if len(req.System) > 0 {
		params.System = toSDKSystemBlocks(req.System)
	}
	if t := req.InferenceConfig.Temperature; t != nil {
		params.Temperature = sdk.Float(*t)
	}
	if p := req.InferenceConfig.TopP; p != nil {
		params.TopP = sdk.Float(*p)
	}
	if len(req.InferenceConfig.StopSequences) > 0 {
		params.StopSequences = req.InferenceConfig.StopSequences
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.logger.Warn("converse failed",
			logging.Field{Key: "model", Value: req.ModelID},
			logging.Err(err))
		return nil, eris.Wrap(fmt.Errorf("%w: %w", ErrUpstream, err), "llm: converse")
	}
	latency := time.Since(start)

	resp := fromSDKMessage(msg, req.ModelID, latency)
	c.logger.Info("converse complete",
		logging.Field{Key: "model", Value: resp.ModelID},
		logging.Field{Key: "input_tokens", Value: resp.Usage.InputTokens},
		logging.Field{Key: "output_tokens", Value: resp.Usage.OutputTokens},
		logging.Field{Key: "stop_reason", Value: resp.StopReason},
		logging.Field{Key: "latency_ms", Value: resp.Metrics.LatencyMs})
	return resp, nil
}

func (c *Client) validate(req *ConverseRequest) error {
	if len(req.Messages) == 0 {
		return eris.Wrap(ErrInvalidRequest, "at least one message is required")
	}
	for i, m := range req.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return eris.Wrapf(ErrInvalidRequest, "messages[%d]: role must be user or assistant, got %q", i, m.Role)
		}
		if len(m.Content) == 0 {
			return eris.Wrapf(ErrInvalidRequest, "messages[%d]: content is empty", i)
		}
	}
	ic := &req.InferenceConfig
	if ic.MaxTokens < 0 {
		return eris.Wrap(ErrInvalidRequest, "maxTokens must be positive")
	}
	if ic.MaxTokens == 0 {
		ic.MaxTokens = c.cfg.MaxTokens
	}
	if err := unitInterval("temperature", ic.Temperature); err != nil {
		return err
	}
	if err := unitInterval("topP", ic.TopP); err != nil {
		return err
	}
	if strings.TrimSpace(req.ModelID) == "" {
		req.ModelID = c.cfg.Model
	}
	return nil
}

func unitInterval(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return eris.Wrap(ErrInvalidRequest, fmt.Sprintf("%s must be within [0,1], got %g", name, *v))
	}
	return nil
}

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			blocks = append(blocks, sdk.NewTextBlock(b.Text))
		}
		switch m.Role {
		case RoleAssistant:
			out[i] = sdk.NewAssistantMessage(blocks...)
		default:
			out[i] = sdk.NewUserMessage(blocks...)
		}
	}
	return out
}

func toSDKSystemBlocks(blocks []ContentBlock) []sdk.TextBlockParam {
	out := make([]sdk.TextBlockParam, len(blocks))
	for i, b := range blocks {
		out[i] = sdk.TextBlockParam{Text: b.Text}
	}
	return out
}

func fromSDKMessage(msg *sdk.Message, requested string, latency time.Duration) *ConverseResponse {
	content := make([]ContentBlock, 0, len(msg.Content))
	for _, b := range msg.Content {
		if b.Type == "text" {
			content = append(content, ContentBlock{Text: b.Text})
		}
	}
	model := string(msg.Model)
	if model == "" {
		model = requested
	}
	return &ConverseResponse{
		ModelID: model,
		Output: Output{Message: Message{
			Role:    RoleAssistant,
			Content: content,
		}},
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
			TotalTokens:  msg.Usage.InputTokens + msg.Usage.OutputTokens,
		},
		Metrics: Metrics{LatencyMs: latency.Milliseconds()},
	}
}
