// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ai generates article content through the Anthropic Claude
// messages API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	httpTimeout      = 120 * time.Second

	// temperature balances variety across articles on similar topics
	// against staying on-structure for the stage templates.
	temperature = 0.7
)

// Client calls the Claude messages endpoint.
type Client struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	http      *http.Client
}

// NewClient creates a Claude client.
func NewClient(apiKey, model string, maxTokens int) *Client {
	return &Client{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		baseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: httpTimeout},
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint, used
// in tests.
func NewClientWithBaseURL(apiKey, model string, maxTokens int, baseURL string) *Client {
	c := NewClient(apiKey, model, maxTokens)
	c.baseURL = baseURL
	return c
}

// Completion is the text result of one messages call.
type Completion struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
}

// Complete sends a system and user prompt and returns the first text
// block of the response.
func (c *Client) Complete(ctx context.Context, system, user string) (*Completion, error) {
	body := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": temperature,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	}
	if system != "" {
		body["system"] = system
	}

	respBody, err := c.doRequest(ctx, c.baseURL+"/messages", body)
	if err != nil {
		return nil, fmt.Errorf("claude chat: %w", err)
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("claude decode: %w", err)
	}

	content := ""
	for _, block := range result.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	if content == "" {
		return nil, fmt.Errorf("claude: no text content returned")
	}

	return &Completion{
		Content:      content,
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		Model:        result.Model,
	}, nil
}

// doRequest performs a JSON HTTP request with Anthropic-style auth.
func (c *Client) doRequest(ctx context.Context, url string, body any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
