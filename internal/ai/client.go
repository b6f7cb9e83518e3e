package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrDisabled возвращается, когда генератор текста не настроен.
var ErrDisabled = errors.New("ai generator is disabled")

// Generator генерирует текст ответа или комментария по подсказке.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Client ходит во внешний HTTP-сервис генерации текста.
type Client struct {
	http *resty.Client
	url  string
}

// NewClient создает клиент. apiKey может быть пустым.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &Client{http: client, url: url}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(generateRequest{Prompt: prompt}).
		SetResult(&out).
		Post(c.url)
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ai service responded with status %d", resp.StatusCode())
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", errors.New("ai service returned empty text")
	}
	return text, nil
}

// Disabled - генератор-заглушка для окружений без ИИ.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrDisabled
}

// AnswerPrompt собирает подсказку для ответа на вопрос.
func AnswerPrompt(title, body string) string {
	return fmt.Sprintf("Answer the following course question.\nTitle: %s\nQuestion: %s", title, body)
}

// CommentPrompt собирает подсказку для комментария к тексту вопроса или ответа.
func CommentPrompt(text string) string {
	return fmt.Sprintf("Write a short helpful comment on the following post.\n%s", text)
}
