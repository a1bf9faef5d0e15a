package llm

// EmbeddingRequest asks for vector embeddings of one or more inputs.
type EmbeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format,omitempty"` // "float" or "base64"
	Dimensions     *int     `json:"dimensions,omitempty"`
	User           string   `json:"user,omitempty"`
}

// Embedding is a single embedding vector.
type Embedding struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingResponse is the result of an embeddings call.
type EmbeddingResponse struct {
	Object string      `json:"object"`
	Data   []Embedding `json:"data"`
	Model  string      `json:"model"`
	Usage  Usage       `json:"usage"`
}

// AudioTranscriptionRequest is sent as multipart form data. File holds the raw
// audio bytes and Filename names the upload part.
type AudioTranscriptionRequest struct {
	File                   []byte
	Filename               string
	Model                  string
	Language               string
	Prompt                 string
	ResponseFormat         string // "json", "text", "srt", "verbose_json", "vtt"
	Temperature            *float64
	TimestampGranularities []string
}

// AudioTranslationRequest translates audio into English text.
type AudioTranslationRequest struct {
	File           []byte
	Filename       string
	Model          string
	Prompt         string
	ResponseFormat string
	Temperature    *float64
}

// AudioTranscriptionResponse is returned by both transcription and
// translation.
type AudioTranscriptionResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language,omitempty"`
	Duration *float64         `json:"duration,omitempty"`
	Words    []map[string]any `json:"words,omitempty"`
	Segments []map[string]any `json:"segments,omitempty"`
}

// AudioSpeechRequest synthesizes speech from text.
type AudioSpeechRequest struct {
	Model          string   `json:"model"`
	Input          string   `json:"input"`
	Voice          string   `json:"voice"` // alloy, echo, fable, onyx, nova, shimmer
	ResponseFormat string   `json:"response_format,omitempty"`
	Speed          *float64 `json:"speed,omitempty"`
}

// ImageGenerationRequest creates images from a prompt.
type ImageGenerationRequest struct {
	Model          string `json:"model,omitempty"`
	Prompt         string `json:"prompt"`
	N              *int   `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"` // "url" or "b64_json"
	Style          string `json:"style,omitempty"`
	User           string `json:"user,omitempty"`
}

// ImageEditRequest edits an image, optionally constrained by a mask. Sent as
// multipart form data.
type ImageEditRequest struct {
	Image          []byte
	ImageFilename  string
	Mask           []byte
	MaskFilename   string
	Prompt         string
	Model          string
	N              *int
	Size           string
	ResponseFormat string
	User           string
}

// ImageVariationRequest creates variations of an image.
type ImageVariationRequest struct {
	Image          []byte
	ImageFilename  string
	Model          string
	N              *int
	Size           string
	ResponseFormat string
	User           string
}

// ImageData is one generated image.
type ImageData struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageResponse is returned by all image operations.
type ImageResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
}

// ModerationRequest classifies inputs against the moderation categories.
type ModerationRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

// ModerationCategories flags each category.
type ModerationCategories struct {
	Hate                  bool `json:"hate"`
	HateThreatening       bool `json:"hate/threatening"`
	Harassment            bool `json:"harassment"`
	HarassmentThreatening bool `json:"harassment/threatening"`
	SelfHarm              bool `json:"self-harm"`
	SelfHarmIntent        bool `json:"self-harm/intent"`
	SelfHarmInstructions  bool `json:"self-harm/instructions"`
	Sexual                bool `json:"sexual"`
	SexualMinors          bool `json:"sexual/minors"`
	Violence              bool `json:"violence"`
	ViolenceGraphic       bool `json:"violence/graphic"`
}

// ModerationCategoryScores scores each category.
type ModerationCategoryScores struct {
	Hate                  float64 `json:"hate"`
	HateThreatening       float64 `json:"hate/threatening"`
	Harassment            float64 `json:"harassment"`
	HarassmentThreatening float64 `json:"harassment/threatening"`
	SelfHarm              float64 `json:"self-harm"`
	SelfHarmIntent        float64 `json:"self-harm/intent"`
	SelfHarmInstructions  float64 `json:"self-harm/instructions"`
	Sexual                float64 `json:"sexual"`
	SexualMinors          float64 `json:"sexual/minors"`
	Violence              float64 `json:"violence"`
	ViolenceGraphic       float64 `json:"violence/graphic"`
}

// ModerationResult is the verdict for one input.
type ModerationResult struct {
	Flagged        bool                     `json:"flagged"`
	Categories     ModerationCategories     `json:"categories"`
	CategoryScores ModerationCategoryScores `json:"category_scores"`
}

// ModerationResponse is the result of a moderation call.
type ModerationResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Results []ModerationResult `json:"results"`
}
