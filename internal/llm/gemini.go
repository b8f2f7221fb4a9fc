package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/agenthands/blockvoice/internal/recognition"
)

const transcribePrompt = "Transcribe the spoken English in this audio. Reply with the words only, in lowercase, without punctuation."

type GeminiClient struct {
	client             *genai.Client
	model              string
	transcriptionModel string
}

func NewGeminiClient(ctx context.Context, apiKey, model, transcriptionModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if transcriptionModel == "" {
		transcriptionModel = model
	}
	return &GeminiClient{
		client:             client,
		model:              model,
		transcriptionModel: transcriptionModel,
	}, nil
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates or content")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}
	return "", fmt.Errorf("no text part in response")
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.GenerativeModel(c.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

// Transcribe passes the audio inline alongside a transcription instruction.
func (c *GeminiClient) Transcribe(ctx context.Context, audio recognition.Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("empty audio")
	}
	mimeType, _, _ := strings.Cut(audio.MIMEType, ";")
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	resp, err := c.client.GenerativeModel(c.transcriptionModel).GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: audio.Data},
		genai.Text(transcribePrompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini transcription: %w", err)
	}
	text, err := firstText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
