// Package client 是短链接服务 HTTP 接口的客户端, 供 linkctl 使用
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError 是服务端返回的错误
type APIError struct {
	Status  int
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%d %s (field: %s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// CreateRequest 与服务端 POST /links 的请求体一致
type CreateRequest struct {
	TargetURL  string `json:"target_url"`
	Alias      string `json:"alias,omitempty"`
	Expiration string `json:"expiration,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
}

// Link 与服务端返回的短链接一致
type Link struct {
	Code       string     `json:"code"`
	ShortURL   string     `json:"short_url"`
	TargetURL  string     `json:"target_url"`
	OwnerID    *string    `json:"owner_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	ClickCount int64      `json:"click_count"`
	Active     bool       `json:"active"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New 创建客户端, token 为空时匿名访问
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 10 * time.Second,
			// 跳转由调用方决定是否跟随
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (*Link, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/links", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}
	var link Link
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return &link, nil
}

// Resolve 返回短码的跳转目标, 不跟随跳转
func (c *Client) Resolve(ctx context.Context, code string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/links/"+url.PathEscape(code), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTemporaryRedirect, http.StatusFound, http.StatusMovedPermanently, http.StatusPermanentRedirect:
		location := resp.Header.Get("Location")
		if location == "" {
			return "", errors.New("跳转响应缺少 Location")
		}
		return location, nil
	default:
		return "", decodeError(resp)
	}
}

// List 列出所有者的一页短链接, 返回下一页游标
func (c *Client) List(ctx context.Context, ownerID string, limit int, cursor string) ([]Link, string, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	path := "/owners/" + url.PathEscape(ownerID) + "/links"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeError(resp)
	}
	var links []Link
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		return nil, "", fmt.Errorf("解析响应失败: %w", err)
	}
	return links, resp.Header.Get("X-Next-Cursor"), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s %s 失败: %w", method, path, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
