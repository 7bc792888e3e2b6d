package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Planner/internal/domain"
)

// SessionRepo — репозиторий для работы с study_sessions.
type SessionRepo struct {
	pool *pgxpool.Pool
}

// NewSessionRepo создаёт новый SessionRepo.
func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// sessionColumns — список колонок в порядке сканирования.
const sessionColumns = "id, user_id, course_id, title, start_time, end_time, status"

// Create вставляет новую сессию и возвращает созданную запись.
// Статус проставляется дефолтом БД (PLANNED).
// Дедупликации нет: повторный идентичный insert создаёт вторую строку.
func (r *SessionRepo) Create(ctx context.Context, s *domain.StudySession) (*domain.StudySession, error) {
	query := `
		INSERT INTO study_sessions (user_id, course_id, title, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + sessionColumns

	row := r.pool.QueryRow(ctx, query,
		s.UserID,
		s.CourseID,
		s.Title,
		s.StartTime,
		s.EndTime,
	)
	created, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return created, nil
}

// GetByID возвращает сессию по ID.
func (r *SessionRepo) GetByID(ctx context.Context, id int64) (*domain.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE id = $1
	`
	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	return session, nil
}

// List возвращает сессии, отсортированные по времени начала.
// userID == nil — все сессии, иначе только указанного пользователя.
func (r *SessionRepo) List(ctx context.Context, userID *int64) ([]domain.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE ($1::bigint IS NULL OR user_id = $1)
		ORDER BY start_time
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.StudySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// Update полностью обновляет сессию и возвращает обновлённую запись.
func (r *SessionRepo) Update(ctx context.Context, id int64, s *domain.StudySession) (*domain.StudySession, error) {
	query := `
		UPDATE study_sessions
		SET user_id = $1, course_id = $2, title = $3, start_time = $4, end_time = $5
		WHERE id = $6
		RETURNING ` + sessionColumns

	updated, err := scanSession(r.pool.QueryRow(ctx, query,
		s.UserID,
		s.CourseID,
		s.Title,
		s.StartTime,
		s.EndTime,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return updated, nil
}

// Complete переводит сессию в статус COMPLETED.
// Идемпотентно: повторный вызов для существующей записи успешен.
func (r *SessionRepo) Complete(ctx context.Context, id int64) error {
	query := `
		UPDATE study_sessions
		SET status = $1
		WHERE id = $2
	`
	tag, err := r.pool.Exec(ctx, query, domain.SessionStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reschedule обновляет окно времени сессии.
func (r *SessionRepo) Reschedule(ctx context.Context, id int64, start, end time.Time) error {
	query := `
		UPDATE study_sessions
		SET start_time = $1, end_time = $2
		WHERE id = $3
	`
	tag, err := r.pool.Exec(ctx, query, start, end, id)
	if err != nil {
		return fmt.Errorf("reschedule session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет сессию. Отсутствие записи не считается ошибкой.
func (r *SessionRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM study_sessions WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAll удаляет все сессии или сессии одного пользователя.
func (r *SessionRepo) DeleteAll(ctx context.Context, userID *int64) error {
	query := `
		DELETE FROM study_sessions
		WHERE ($1::bigint IS NULL OR user_id = $1)
	`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// Ping проверяет доступность БД (для health check).
func (r *SessionRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// scanSession сканирует одну строку в StudySession.
func scanSession(row pgx.Row) (*domain.StudySession, error) {
	var s domain.StudySession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.CourseID,
		&s.Title,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
