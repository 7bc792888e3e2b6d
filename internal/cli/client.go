package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Wire types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// SessionResponse — сессия из API.
type SessionResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	CourseID  int64  `json:"course_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// SessionRequest — создание/обновление сессии.
type SessionRequest struct {
	UserID    int64  `json:"user_id"`
	CourseID  int64  `json:"course_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// messageResponse — ответ с сообщением (и ошибки, и подтверждения).
type messageResponse struct {
	Message string `json:"message"`
}

// --- Client ---

// Client — HTTP-клиент для Planner API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. token — bearer-токен,
// прикладывается к каждому запросу.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListSessions возвращает сессии, опционально одного пользователя.
func (c *Client) ListSessions(userID int64) ([]SessionResponse, error) {
	path := "/study-sessions"
	if userID > 0 {
		params := url.Values{}
		params.Set("user_id", fmt.Sprintf("%d", userID))
		path += "?" + params.Encode()
	}

	var sessions []SessionResponse
	err := c.do(http.MethodGet, path, nil, &sessions)
	return sessions, err
}

// GetSession возвращает сессию по ID.
func (c *Client) GetSession(id int64) (*SessionResponse, error) {
	var session SessionResponse
	err := c.do(http.MethodGet, fmt.Sprintf("/study-sessions/%d", id), nil, &session)
	return &session, err
}

// CreateSession создаёт новую сессию.
func (c *Client) CreateSession(req SessionRequest) (*SessionResponse, error) {
	var session SessionResponse
	err := c.do(http.MethodPost, "/study-sessions", req, &session)
	return &session, err
}

// CompleteSession отмечает сессию завершённой.
func (c *Client) CompleteSession(id int64) (string, error) {
	var msg messageResponse
	err := c.do(http.MethodPost, fmt.Sprintf("/study-sessions/%d/complete", id), nil, &msg)
	return msg.Message, err
}

// RescheduleSession переносит сессию на новое окно.
func (c *Client) RescheduleSession(id int64, newStart, newEnd string) (string, error) {
	params := url.Values{}
	params.Set("new_start", newStart)
	params.Set("new_end", newEnd)

	var msg messageResponse
	err := c.do(http.MethodPut,
		fmt.Sprintf("/study-sessions/%d/reschedule?%s", id, params.Encode()), nil, &msg)
	return msg.Message, err
}

// DeleteSession удаляет сессию.
func (c *Client) DeleteSession(id int64) (string, error) {
	var msg messageResponse
	err := c.do(http.MethodDelete, fmt.Sprintf("/study-sessions/%d", id), nil, &msg)
	return msg.Message, err
}

// do выполняет запрос и декодирует ответ.
// Не-2xx статусы превращаются в ошибку с сообщением сервера.
func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg messageResponse
		if json.Unmarshal(data, &msg) == nil && msg.Message != "" {
			return fmt.Errorf("%s (status %d)", msg.Message, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
