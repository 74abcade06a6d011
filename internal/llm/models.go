package llm

// ContentBlock is one text block of a message.
type ContentBlock struct {
	Text string `json:"text"`
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type InferenceConfig struct {
	MaxTokens     int64    `json:"maxTokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

// ConverseRequest mirrors the Converse call shape: a model id, the
// conversation so far and inference settings.
type ConverseRequest struct {
	ModelID         string          `json:"modelId,omitempty"`
	Messages        []Message       `json:"messages"`
	System          []ContentBlock  `json:"system,omitempty"`
	InferenceConfig InferenceConfig `json:"inferenceConfig"`
}

type Output struct {
	Message Message `json:"message"`
}

type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

type Metrics struct {
	LatencyMs int64 `json:"latencyMs"`
}

type ConverseResponse struct {
	ModelID    string  `json:"modelId"`
	Output     Output  `json:"output"`
	StopReason string  `json:"stopReason"`
	Usage      Usage   `json:"usage"`
	Metrics    Metrics `json:"metrics"`
}

// Text joins the text blocks of the output message.
func (r *ConverseResponse) Text() string {
	var out string
	for i, b := range r.Output.Message.Content {
		if i > 0 {
			out += "\n"
		}
		out += b.Text
	}
	return out
}

// UserPrompt builds a single-turn request.
func UserPrompt(prompt string) ConverseRequest {
	return ConverseRequest{
		Messages: []Message{{Role: RoleUser, Content: []ContentBlock{{Text: prompt}}}},
	}
}
