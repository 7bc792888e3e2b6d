// Package clients содержит HTTP клиенты для проверки внешних ссылок.
//
// Перед созданием сессии проверяется, что пользователь и курс существуют
// в своих сервисах. Любой отказ проверки (таймаут, не-200, кривой ответ)
// трактуется консервативно как "не существует" — создание отклоняется.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// existsTimeout — таймаут existence-check запроса.
const existsTimeout = 2 * time.Second

// existsResponse — ответ existence-check endpoint'а.
type existsResponse struct {
	Exists bool `json:"exists"`
}

// ExistenceClient проверяет существование ресурса во внешнем сервисе
// через internal existence endpoint.
type ExistenceClient struct {
	baseURL string
	path    string // формат пути, например "/internal/users/%d/exists"
	client  *http.Client
}

// NewUserClient создаёт клиент для user-service.
func NewUserClient(baseURL string) *ExistenceClient {
	return newExistenceClient(baseURL, "/internal/users/%d/exists")
}

// NewCourseClient создаёт клиент для course-service.
func NewCourseClient(baseURL string) *ExistenceClient {
	return newExistenceClient(baseURL, "/internal/courses/%d/exists")
}

func newExistenceClient(baseURL, path string) *ExistenceClient {
	return &ExistenceClient{
		baseURL: baseURL,
		path:    path,
		client: &http.Client{
			Timeout: existsTimeout,
		},
	}
}

// Exists проверяет существование ресурса по ID.
// Возвращает false при любой ошибке: проверка fails closed.
func (c *ExistenceClient) Exists(ctx context.Context, id int64) bool {
	ctx, cancel := context.WithTimeout(ctx, existsTimeout)
	defer cancel()

	url := c.baseURL + fmt.Sprintf(c.path, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var body existsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}

	return body.Exists
}
