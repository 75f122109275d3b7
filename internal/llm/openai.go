package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pmilanese/kinseek/internal/model"
)

// Drafter generates research notes for clusters.
type Drafter interface {
	Name() string
	Draft(ctx context.Context, req NoteRequest) (*NoteResponse, error)
	IsAvailable(ctx context.Context) bool
}

// OpenAIDrafter drafts notes through the OpenAI chat completions API, or any
// compatible endpoint via BaseURL.
type OpenAIDrafter struct {
	client *openai.Client
	config model.LLMConfig
}

// NewOpenAIDrafter builds a drafter from configuration.
func NewOpenAIDrafter(cfg model.LLMConfig) (*OpenAIDrafter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIDrafter{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

func (d *OpenAIDrafter) Name() string {
	return "openai"
}

// IsAvailable checks the endpoint with a lightweight model listing.
func (d *OpenAIDrafter) IsAvailable(ctx context.Context) bool {
	_, err := d.client.ListModels(ctx)
	return err == nil
}

// Draft generates a note for the cluster and verifies every citation stays
// inside the cluster's own URLs.
func (d *OpenAIDrafter) Draft(ctx context.Context, req NoteRequest) (*NoteResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Query, req.Cluster)
	}

	chatModel := req.Model
	if chatModel == "" {
		chatModel = d.config.Model
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = d.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 600
	}

	timeout := time.Duration(d.config.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a genealogy research assistant. Describe record evidence only; never assert identity.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("draft note: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("draft note: empty response")
	}

	note := strings.TrimSpace(resp.Choices[0].Message.Content)
	cited := extractURLs(note)
	if err := checkCitations(cited, AllowedURLs(req.Cluster)); err != nil {
		return nil, err
	}

	return &NoteResponse{
		Note:       note,
		CitedURLs:  cited,
		Model:      chatModel,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

var _ Drafter = (*OpenAIDrafter)(nil)
