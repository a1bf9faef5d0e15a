package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/zaguanai/zaguan-go/pkg/llm"
)

const (
	defaultAudioModel  = "whisper-1"
	defaultImageModel  = "dall-e-2"
	defaultImageSize   = "1024x1024"
	defaultImageFormat = "url"
)

// CreateEmbeddings returns embeddings for the request inputs.
func (c *Client) CreateEmbeddings(ctx context.Context, req *llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	return call[llm.EmbeddingResponse](ctx, c, http.MethodPost, "/v1/embeddings", req)
}

// CreateSpeech synthesizes speech and returns the raw audio bytes.
func (c *Client) CreateSpeech(ctx context.Context, req *llm.AudioSpeechRequest) ([]byte, error) {
	r, err := jsonRequest(http.MethodPost, "/v1/audio/speech", req)
	if err != nil {
		return nil, err
	}
	r.model = req.Model

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// CreateTranscription transcribes audio. Response formats other than json and
// verbose_json are returned verbatim in Text.
func (c *Client) CreateTranscription(ctx context.Context, req *llm.AudioTranscriptionRequest) (*llm.AudioTranscriptionResponse, error) {
	f := newForm()
	f.file("file", req.Filename, req.File)
	f.field("model", orDefault(req.Model, defaultAudioModel))
	f.field("response_format", orDefault(req.ResponseFormat, "json"))
	f.field("language", req.Language)
	f.field("prompt", req.Prompt)
	f.floatField("temperature", req.Temperature)
	for _, g := range req.TimestampGranularities {
		f.field("timestamp_granularities[]", g)
	}

	return c.audio(ctx, "/v1/audio/transcriptions", f, req.ResponseFormat)
}

// CreateTranslation translates audio into English text. Response formats
// other than json and verbose_json are returned verbatim in Text.
func (c *Client) CreateTranslation(ctx context.Context, req *llm.AudioTranslationRequest) (*llm.AudioTranscriptionResponse, error) {
	f := newForm()
	f.file("file", req.Filename, req.File)
	f.field("model", orDefault(req.Model, defaultAudioModel))
	f.field("response_format", orDefault(req.ResponseFormat, "json"))
	f.field("prompt", req.Prompt)
	f.floatField("temperature", req.Temperature)

	return c.audio(ctx, "/v1/audio/translations", f, req.ResponseFormat)
}

func (c *Client) audio(ctx context.Context, path string, f *form, format string) (*llm.AudioTranscriptionResponse, error) {
	r, err := f.request(path)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	switch format {
	case "", "json", "verbose_json":
		return decode[llm.AudioTranscriptionResponse](resp, path)
	default:
		return &llm.AudioTranscriptionResponse{Text: string(resp.body)}, nil
	}
}

// CreateImage generates images from a prompt.
func (c *Client) CreateImage(ctx context.Context, req *llm.ImageGenerationRequest) (*llm.ImageResponse, error) {
	return call[llm.ImageResponse](ctx, c, http.MethodPost, "/v1/images/generations", req)
}

// EditImage edits an image, optionally constrained by a mask.
func (c *Client) EditImage(ctx context.Context, req *llm.ImageEditRequest) (*llm.ImageResponse, error) {
	f := newForm()
	f.file("image", req.ImageFilename, req.Image)
	if req.Mask != nil {
		f.file("mask", req.MaskFilename, req.Mask)
	}
	f.field("prompt", req.Prompt)
	f.field("model", orDefault(req.Model, defaultImageModel))
	f.intField("n", req.N, 1)
	f.field("size", orDefault(req.Size, defaultImageSize))
	f.field("response_format", orDefault(req.ResponseFormat, defaultImageFormat))
	f.field("user", req.User)

	return c.images(ctx, "/v1/images/edits", f)
}

// CreateImageVariation creates variations of an image.
func (c *Client) CreateImageVariation(ctx context.Context, req *llm.ImageVariationRequest) (*llm.ImageResponse, error) {
	f := newForm()
	f.file("image", req.ImageFilename, req.Image)
	f.field("model", orDefault(req.Model, defaultImageModel))
	f.intField("n", req.N, 1)
	f.field("size", orDefault(req.Size, defaultImageSize))
	f.field("response_format", orDefault(req.ResponseFormat, defaultImageFormat))
	f.field("user", req.User)

	return c.images(ctx, "/v1/images/variations", f)
}

func (c *Client) images(ctx context.Context, path string, f *form) (*llm.ImageResponse, error) {
	r, err := f.request(path)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return decode[llm.ImageResponse](resp, path)
}

// CreateModeration classifies the inputs against the moderation categories.
func (c *Client) CreateModeration(ctx context.Context, req *llm.ModerationRequest) (*llm.ModerationResponse, error) {
	return call[llm.ModerationResponse](ctx, c, http.MethodPost, "/v1/moderations", req)
}

// form builds a multipart/form-data body. The first write error sticks and
// is returned by request. Every file part is sent as
// application/octet-stream under the given filename.
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) file(name, filename string, data []byte) {
	if f.err != nil {
		return
	}
	if filename == "" {
		filename = name
	}

	part, err := f.w.CreateFormFile(name, filename)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(data)
}

// field writes a non-empty value.
func (f *form) field(name, value string) {
	if f.err != nil || value == "" {
		return
	}
	f.err = f.w.WriteField(name, value)
}

func (f *form) floatField(name string, v *float64) {
	if v != nil {
		f.field(name, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}

func (f *form) intField(name string, v *int, def int) {
	n := def
	if v != nil {
		n = *v
	}
	f.field(name, strconv.Itoa(n))
}

func (f *form) request(path string) (*request, error) {
	if f.err == nil {
		f.err = f.w.Close()
	}
	if f.err != nil {
		return nil, fmt.Errorf("zaguan: encoding %s form: %w", path, f.err)
	}

	return &request{
		method:      http.MethodPost,
		path:        path,
		body:        f.buf.Bytes(),
		contentType: f.w.FormDataContentType(),
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
