package llm

// ChatResponse is a non-streaming chat completion response.
type ChatResponse struct {
	ID       string         `json:"id"`
	Object   string         `json:"object"`
	Created  int64          `json:"created"`
	Model    string         `json:"model"`
	Choices  []Choice       `json:"choices"`
	Usage    *Usage         `json:"usage,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Choice is one completion alternative. Non-streaming responses populate
// Message; streaming chunks populate Delta.
type Choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message,omitempty"`
	Delta        *Message `json:"delta,omitempty"`
	FinishReason *string  `json:"finish_reason,omitempty"`
}

// Usage contains token counts.
type Usage struct {
	PromptTokens            int           `json:"prompt_tokens"`
	CompletionTokens        int           `json:"completion_tokens"`
	TotalTokens             int           `json:"total_tokens"`
	PromptTokensDetails     *TokenDetails `json:"prompt_tokens_details,omitempty"`
	CompletionTokensDetails *TokenDetails `json:"completion_tokens_details,omitempty"`
}

// TokenDetails breaks token usage down further.
type TokenDetails struct {
	ReasoningTokens          *int `json:"reasoning_tokens,omitempty"`
	CachedTokens             *int `json:"cached_tokens,omitempty"`
	AudioTokens              *int `json:"audio_tokens,omitempty"`
	AcceptedPredictionTokens *int `json:"accepted_prediction_tokens,omitempty"`
	RejectedPredictionTokens *int `json:"rejected_prediction_tokens,omitempty"`
}

// FirstText returns the text of the first choice's message, or "" when the
// response has no choices.
func (r *ChatResponse) FirstText() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.GetText()
}

// ReasoningTokens returns the completion reasoning token count, if reported.
func (u *Usage) ReasoningTokens() int {
	if u == nil || u.CompletionTokensDetails == nil || u.CompletionTokensDetails.ReasoningTokens == nil {
		return 0
	}
	return *u.CompletionTokensDetails.ReasoningTokens
}
