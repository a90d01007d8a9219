package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
)

const (
	summarizePrompt = "다음은 한 종목에 대한 뉴스 제목들입니다. 투자 관점의 핵심 재료를 한국어 한두 문장으로 요약하세요. 제목에 없는 내용은 추가하지 마세요."

	classifyPrompt = `다음은 한 종목에 대한 뉴스 제목들입니다. 단기 투자 매력도를 1(낮음)~5(높음) 정수로 평가하고 대표 테마를 한 단어로 분류하세요.
반드시 JSON 한 개만 출력하세요: {"attractiveness": <1-5>, "theme": "<테마>"}`
)

// Client is a chat-completions backed Summarizer and Classifier.
// Timeouts come from the caller's context.
type Client struct {
	api    *openai.Client
	model  string
	logger *logger.Logger
}

// doer routes the SDK's requests through httputil (pacing, retry, logging)
type doer struct {
	client *httputil.Client
}

func (d doer) Do(req *http.Request) (*http.Response, error) {
	return d.client.Do(req.Context(), req)
}

// NewClient creates an inference client for an OpenAI-compatible endpoint
func NewClient(httpClient *httputil.Client, cfg config.InferenceConfig, log *logger.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.URL, "/")
	oc.HTTPClient = doer{client: httpClient}

	return &Client{
		api:    openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		logger: log,
	}
}

// Summarize returns a short summary of the snippet blob
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	content, err := c.complete(ctx, summarizePrompt, text, false)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		return "", fmt.Errorf("summarize: empty completion: %w", contracts.ErrInferenceFailure)
	}
	return summary, nil
}

// Classify returns attractiveness + theme. Range checks are left to the caller.
func (c *Client) Classify(ctx context.Context, text string) (contracts.Classification, error) {
	content, err := c.complete(ctx, classifyPrompt, text, true)
	if err != nil {
		return contracts.Classification{}, fmt.Errorf("classify: %w", err)
	}

	cls, err := parseClassification(content)
	if err != nil {
		return contracts.Classification{}, fmt.Errorf("classify: %w", err)
	}
	return cls, nil
}

func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, contracts.ErrInferenceFailure)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices: %w", contracts.ErrInferenceFailure)
	}

	c.logger.WithFields(map[string]interface{}{
		"model":  c.model,
		"tokens": resp.Usage.TotalTokens,
	}).Debug("Inference completed")

	return resp.Choices[0].Message.Content, nil
}

// parseClassification reads the JSON object, tolerating code fences around it
func parseClassification(content string) (contracts.Classification, error) {
	content = strings.TrimSpace(content)
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var raw struct {
		Attractiveness json.Number `json:"attractiveness"`
		Theme          string      `json:"theme"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return contracts.Classification{}, fmt.Errorf("decode %q: %v: %w", content, err, contracts.ErrInferenceFailure)
	}

	score, err := raw.Attractiveness.Float64()
	if err != nil {
		return contracts.Classification{}, fmt.Errorf("attractiveness %q: %w", raw.Attractiveness, contracts.ErrInferenceFailure)
	}

	theme := strings.TrimSpace(raw.Theme)
	if theme == "" {
		theme = contracts.SectorOther
	}

	return contracts.Classification{
		Attractiveness: int(score + 0.5),
		Theme:          theme,
	}, nil
}
