package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"harmonyhub/logger"
)

// GenreClassifier 音乐流派分类协作方：输入data URI形式的音频，返回一个简短的流派标签
// 尽力而为：调用失败时调用方替换为 "Unknown"，不影响摄取流程
type GenreClassifier interface {
	ClassifyGenre(ctx context.Context, musicDataURI string) (string, error)
}

// Config contains configuration for the classifier client.
type Config struct {
	APIBaseURL  string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// System prompt for the genre classifier.
const classifierSystemPrompt = `你是一个音乐流派分类器。给定一段音频，判断它的流派。
只输出一个简短的英文流派标签（如 Rock、Jazz、Hip-Hop、Classical、Electronic），不要输出任何其他文字。`

// NewClient creates a new classifier client.
func NewClient(config *Config) *Client {
	if config.MaxTokens == 0 {
		config.MaxTokens = 16
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ClassifyGenre submits the audio payload and returns the predicted genre label.
func (c *Client) ClassifyGenre(ctx context.Context, musicDataURI string) (string, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: classifierSystemPrompt},
			{Role: "user", Content: "Music File: " + musicDataURI + "\n\nGenre:"},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	genre := cleanGenreLabel(chatResp.Choices[0].Message.Content)
	if genre == "" {
		return "", fmt.Errorf("empty genre label returned")
	}

	logger.Debug("流派分类完成", logger.String("genre", genre))
	return genre, nil
}

// cleanGenreLabel 取回复的第一行并去掉引号与句号
func cleanGenreLabel(content string) string {
	label := strings.TrimSpace(content)
	if idx := strings.IndexByte(label, '\n'); idx >= 0 {
		label = label[:idx]
	}
	label = strings.Trim(label, `"'.。 `)
	return label
}

// AudioDataURI 将音频字节编码为 data URI（data:<mime>;base64,<data>）
func AudioDataURI(data []byte, contentType string) string {
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
