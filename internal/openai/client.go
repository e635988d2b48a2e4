package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/pathakanu/lifesync/internal/model"
)

const requestTimeout = 30 * time.Second

// ErrClientNotInitialised is returned when attempting to call the API without a configured client.
var ErrClientNotInitialised = errors.New("openai client not initialised")

// Client wraps the OpenAI SDK and exposes the two assistant calls.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
}

// New returns a client for apiKey. Without a key the client reports
// ErrClientNotInitialised from every call.
func New(apiKey, modelName string, opts ...option.RequestOption) *Client {
	if apiKey == "" {
		return &Client{}
	}
	chatModel := openai.ChatModel(modelName)
	if modelName == "" {
		chatModel = openai.ChatModelGPT4oMini
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Client{
		client: &client,
		model:  chatModel,
	}
}

// SystemInstruction is the persona used for free-form questions.
func SystemInstruction(role model.Role) string {
	persona := "Health and Life Assistant"
	if role == model.RoleStudent {
		persona = "Education Consultant and Tutor"
	}
	return fmt.Sprintf("You are an expert %s. Provide clear, concise information. "+
		"When asked for topics, always include 3-5 relevant practice questions at the end in a clear format.", persona)
}

// Ask answers a free-form question in the voice matching role.
func (c *Client) Ask(ctx context.Context, prompt string, role model.Role) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	if c.client == nil {
		return "", ErrClientNotInitialised
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemInstruction(role)),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.7),
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// PlanPrompt builds the user message for a study plan request.
func PlanPrompt(req model.StudyPlanRequest) string {
	exam := "NO"
	if req.ExamTomorrow {
		exam = "YES"
	}
	return fmt.Sprintf("Create a detailed study schedule for the subject %q.\n"+
		"Topics to cover: %s.\n"+
		"Total time available: %d hours.\n"+
		"Is it for an exam tomorrow? %s.\n"+
		"Provide a JSON object with a 'schedule' array of objects with 'name' (topic name), 'startTime', 'endTime', and 'priority' (High, Medium or Low).",
		req.Subject, strings.Join(req.Topics, ", "), req.Hours, exam)
}

var scheduleSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"schedule": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":      map[string]any{"type": "string"},
					"startTime": map[string]any{"type": "string"},
					"endTime":   map[string]any{"type": "string"},
					"priority":  map[string]any{"type": "string"},
				},
				"required":             []string{"name", "startTime", "endTime", "priority"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"schedule"},
	"additionalProperties": false,
}

// PlanStudy asks for a structured study plan. Transport failures are
// returned; a reply that does not parse yields an empty plan and no error.
func (c *Client) PlanStudy(ctx context.Context, req model.StudyPlanRequest) ([]model.StudyScheduleItem, error) {
	if c.client == nil {
		return nil, ErrClientNotInitialised
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(PlanPrompt(req)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "study_schedule",
					Schema: scheduleSchema,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return []model.StudyScheduleItem{}, nil
	}
	return ParseSchedule(resp.Choices[0].Message.Content), nil
}

// ParseSchedule decodes {"schedule": [...]}. Anything else yields an empty plan.
func ParseSchedule(payload string) []model.StudyScheduleItem {
	var doc struct {
		Schedule []model.StudyScheduleItem `json:"schedule"`
	}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil || doc.Schedule == nil {
		return []model.StudyScheduleItem{}
	}
	return doc.Schedule
}
