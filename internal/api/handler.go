package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Planner/internal/auth"
	"github.com/shaiso/Planner/internal/domain"
	"github.com/shaiso/Planner/internal/telemetry"
)

// SessionStore — интерфейс хранилища сессий, потребляемый pipeline'ом.
// Реализуется repo.SessionRepo; в тестах подменяется заглушкой.
type SessionStore interface {
	List(ctx context.Context, userID *int64) ([]domain.StudySession, error)
	GetByID(ctx context.Context, id int64) (*domain.StudySession, error)
	Create(ctx context.Context, s *domain.StudySession) (*domain.StudySession, error)
	Update(ctx context.Context, id int64, s *domain.StudySession) (*domain.StudySession, error)
	Complete(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, start, end time.Time) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context, userID *int64) error
	Ping(ctx context.Context) error
}

// ExistenceChecker проверяет существование внешней ссылки (user/course).
type ExistenceChecker interface {
	Exists(ctx context.Context, id int64) bool
}

// MetricRecorder отправляет метрику обработанного запроса.
type MetricRecorder interface {
	Record(endpoint, method, correlationID string, duration time.Duration)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	store    SessionStore
	users    ExistenceChecker
	courses  ExistenceChecker
	verifier *auth.Verifier
	emitter  *telemetry.Emitter
	metrics  MetricRecorder
	logger   *slog.Logger

	corsOrigin  string
	docsEnabled bool
}

// Config — конфигурация для создания Handler.
type Config struct {
	Store    SessionStore
	Users    ExistenceChecker
	Courses  ExistenceChecker
	Verifier *auth.Verifier
	Emitter  *telemetry.Emitter
	Metrics  MetricRecorder
	Logger   *slog.Logger

	CORSOrigin  string
	DocsEnabled bool
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		store:       cfg.Store,
		users:       cfg.Users,
		courses:     cfg.Courses,
		verifier:    cfg.Verifier,
		emitter:     cfg.Emitter,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		corsOrigin:  cfg.CORSOrigin,
		docsEnabled: cfg.DocsEnabled,
	}
}
