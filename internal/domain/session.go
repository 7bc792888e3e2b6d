package domain

import "time"

// SessionStatus — статус учебной сессии.
//
// Жизненный цикл:
//
//	PLANNED → COMPLETED
type SessionStatus string

const (
	// SessionStatusPlanned — сессия запланирована, но ещё не проведена.
	SessionStatusPlanned SessionStatus = "PLANNED"

	// SessionStatusCompleted — сессия отмечена как завершённая.
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// StudySession — запись о запланированной учебной сессии.
//
// Пользователь и курс принадлежат внешним сервисам (user-service и
// course-service); перед созданием записи их существование проверяется
// через existence-check endpoints.
type StudySession struct {
	// ID — идентификатор записи (SERIAL в БД).
	ID int64 `json:"id"`

	// UserID — ссылка на пользователя во внешнем user-service.
	UserID int64 `json:"user_id"`

	// CourseID — ссылка на курс во внешнем course-service.
	CourseID int64 `json:"course_id"`

	// Title — название сессии.
	Title string `json:"title"`

	// StartTime — начало сессии.
	StartTime time.Time `json:"start_time"`

	// EndTime — конец сессии.
	EndTime time.Time `json:"end_time"`

	// Status — текущий статус.
	Status SessionStatus `json:"status"`
}

// IsCompleted возвращает true, если сессия завершена.
func (s *StudySession) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}
