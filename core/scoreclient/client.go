// Package scoreclient 调用 chordbook 服务读取段落块。
package scoreclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Chordbook/model"

	json "github.com/goccy/go-json"
)

// Client HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient httpClient 为 nil 时使用 10s 超时的默认客户端
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// FetchSections GET /api/tracks/{id}/sections，失败时返回 Failed 而不是 error
func (c *Client) FetchSections(ctx context.Context, trackID string) Result[[]model.SectionBlock] {
	if strings.TrimSpace(trackID) == "" {
		return Failed[[]model.SectionBlock]("track id is required")
	}

	endpoint := fmt.Sprintf("%s/api/tracks/%s/sections", c.baseURL, url.PathEscape(trackID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Failed[[]model.SectionBlock](fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Failed[[]model.SectionBlock](fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Failed[[]model.SectionBlock](fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return Failed[[]model.SectionBlock](fmt.Sprintf("%d: %s", resp.StatusCode, apiErr.Error))
		}
		return Failed[[]model.SectionBlock](fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	blocks := []model.SectionBlock{}
	if err := json.Unmarshal(body, &blocks); err != nil {
		return Failed[[]model.SectionBlock](fmt.Sprintf("decode response: %v", err))
	}
	return Ready(blocks)
}
