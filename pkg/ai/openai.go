package ai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

const (
	temperatureSummarization = 0.3
	temperatureSOAPNote      = 0.3
	summarizationMaxTokens   = 500
	soapNoteMaxTokens        = 1000
)

const summarySystemPrompt = `You are an expert medical scribe assistant. Your task is to provide a concise, factual summary of a segment of a medical conversation.
Focus ONLY on extracting key medical information: patient's reported symptoms, historical context, current complaints, physical findings, doctor's observations, and any specific questions or instructions.
Do NOT interpret, diagnose, or generate a SOAP note. Just summarize the raw content.
Your output MUST be a JSON object with a single key 'summary' containing the summarized text. Ensure the JSON is well-formed.`

const soapSystemPrompt = `You are a highly skilled medical scribe AI. Your primary function is to transform a provided summary of a medical conversation into a structured and concise SOAP (Subjective, Objective, Assessment, Plan) note.
Adhere strictly to the definitions of each section:
- Subjective (S): Information reported by the patient (symptoms, chief complaint, relevant history, social/family history).
- Objective (O): Observable and measurable data (physical exam findings, vital signs, lab results, imaging results). Do NOT include patient-reported symptoms here.
- Assessment (A): The diagnosis or differential diagnoses, and the patient's progress or status.
- Plan (P): Future actions (medications, referrals, follow-up appointments, patient education, further diagnostics).

Your output MUST be a JSON object with 'subjective', 'objective', 'assessment', and 'plan' as keys. Ensure the JSON is valid and well-formed. Do NOT include any introductory or concluding remarks outside the JSON structure. If a section has no relevant information, provide an empty string for that section's value.`

const strictFormatDirective = `
STRICT FORMAT REQUIREMENT: your previous response was not valid JSON. Respond with ONLY the requested JSON object. No markdown fences, no commentary, no text of any kind outside the JSON object.`

// SynthesisClient wraps the OpenAI chat API for scribe summarization and
// SOAP note generation.
type SynthesisClient struct {
	client *openai.Client
	model  string
}

// NewSynthesisClient creates a synthesis client using values from the
// provided config. Pass a nil config to fall back to environment variables.
func NewSynthesisClient(cfg *config.OpenAIConfig) *SynthesisClient {
	var apiKey, baseURL, model string
	if cfg != nil {
		apiKey = cfg.APIKey
		baseURL = cfg.BaseURL
		model = cfg.Model
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = openai.GPT4o
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &SynthesisClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// SummarizeChunk asks the model for a rolling summary of a conversation
// segment. Returns the raw assistant content, expected to be a JSON object
// with a "summary" key.
func (c *SynthesisClient) SummarizeChunk(ctx context.Context, conversation string, strict bool) (string, error) {
	system := summarySystemPrompt
	if strict {
		system += strictFormatDirective
	}

	user := fmt.Sprintf(`Summarize the following medical conversation chunk into a concise paragraph. Focus on patient statements, doctor's findings, and any relevant medical details.

Conversation:
%s

Provide the response as a JSON object with a 'summary' field.`, conversation)

	return c.chatJSON(ctx, system, user, summarizationMaxTokens, temperatureSummarization)
}

// GenerateSOAPNote asks the model for a structured SOAP note over the
// aggregated conversation material. Returns the raw assistant content,
// expected to be a JSON object with the four section keys.
func (c *SynthesisClient) GenerateSOAPNote(ctx context.Context, material string, strict bool) (string, error) {
	system := soapSystemPrompt
	if strict {
		system += strictFormatDirective
	}

	user := fmt.Sprintf(`Create a comprehensive SOAP note from the following summarized medical conversation.

Summarized Medical Conversation:
%s

Provide the response as a JSON object with the following structure:
{
    "subjective": "...",
    "objective": "...",
    "assessment": "...",
    "plan": "..."
}`, material)

	return c.chatJSON(ctx, system, user, soapNoteMaxTokens, temperatureSOAPNote)
}

func (c *SynthesisClient) chatJSON(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{Service: "openai", StatusCode: apiErr.HTTPStatusCode}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
