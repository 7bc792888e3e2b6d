package api

import (
	"fmt"
	"time"

	"github.com/shaiso/Planner/internal/domain"
)

// timeLayout — формат времени на wire: ISO-8601 без зоны,
// как отдают остальные сервисы системы.
const timeLayout = "2006-01-02T15:04:05"

// SessionRequest — запрос на создание или обновление сессии.
type SessionRequest struct {
	UserID    int64  `json:"user_id"`
	CourseID  int64  `json:"course_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Validate проверяет обязательные поля и парсит времена.
func (r *SessionRequest) Validate() (*domain.StudySession, error) {
	if r.UserID <= 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	if r.CourseID <= 0 {
		return nil, fmt.Errorf("course_id is required")
	}
	if r.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	start, err := ParseTime(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", err)
	}
	end, err := ParseTime(r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time: %w", err)
	}

	return &domain.StudySession{
		UserID:    r.UserID,
		CourseID:  r.CourseID,
		Title:     r.Title,
		StartTime: start,
		EndTime:   end,
	}, nil
}

// SessionResponse — ответ с сессией.
type SessionResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	CourseID  int64  `json:"course_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// SessionFromDomain конвертирует domain.StudySession в SessionResponse.
func SessionFromDomain(s *domain.StudySession) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		CourseID:  s.CourseID,
		Title:     s.Title,
		StartTime: s.StartTime.Format(timeLayout),
		EndTime:   s.EndTime.Format(timeLayout),
		Status:    string(s.Status),
	}
}

// SessionsFromDomain конвертирует срез сессий.
func SessionsFromDomain(sessions []domain.StudySession) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = SessionFromDomain(&sessions[i])
	}
	return out
}

// ParseTime парсит время в ISO-8601, с зоной или без.
func ParseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(timeLayout, v)
}
