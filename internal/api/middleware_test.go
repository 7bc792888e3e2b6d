package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shaiso/Planner/internal/auth"
	"github.com/shaiso/Planner/internal/domain"
	"github.com/shaiso/Planner/internal/repo"
	"github.com/shaiso/Planner/internal/telemetry"
)

const testSecret = "test_secret"

// --- Фейки зависимостей ---

// fakeStore — in-memory реализация SessionStore.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[int64]*domain.StudySession
	nextID   int64
	pingErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[int64]*domain.StudySession), nextID: 1}
}

func (f *fakeStore) List(_ context.Context, userID *int64) ([]domain.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StudySession
	for _, s := range f.sessions {
		if userID == nil || s.UserID == *userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copy := *s
	return &copy, nil
}

func (f *fakeStore) Create(_ context.Context, s *domain.StudySession) (*domain.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := *s
	created.ID = f.nextID
	created.Status = domain.SessionStatusPlanned
	f.sessions[created.ID] = &created
	f.nextID++
	out := created
	return &out, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, s *domain.StudySession) (*domain.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.sessions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	updated := *s
	updated.ID = id
	updated.Status = existing.Status
	f.sessions[id] = &updated
	out := updated
	return &out, nil
}

func (f *fakeStore) Complete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.Status = domain.SessionStatusCompleted
	return nil
}

func (f *fakeStore) Reschedule(_ context.Context, id int64, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.StartTime = start
	s.EndTime = end
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) DeleteAll(_ context.Context, userID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if userID == nil || s.UserID == *userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// staticChecker — ExistenceChecker с фиксированным ответом.
type staticChecker bool

func (c staticChecker) Exists(context.Context, int64) bool { return bool(c) }

// metricCall — одна зафиксированная метрика.
type metricCall struct {
	endpoint      string
	method        string
	correlationID string
	duration      time.Duration
}

// fakeMetrics — MetricRecorder, запоминающий вызовы.
type fakeMetrics struct {
	mu    sync.Mutex
	calls []metricCall
}

func (m *fakeMetrics) Record(endpoint, method, correlationID string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, metricCall{endpoint, method, correlationID, duration})
}

func (m *fakeMetrics) recorded() []metricCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]metricCall(nil), m.calls...)
}

// --- Тестовая сборка pipeline ---

type testEnv struct {
	store   *fakeStore
	metrics *fakeMetrics
	mux     *http.ServeMux
}

func newTestEnv(t *testing.T, users, courses staticChecker) *testEnv {
	t.Helper()

	verifier, err := auth.NewVerifier(auth.Options{Secret: testSecret})
	if err != nil {
		t.Fatalf("create verifier: %v", err)
	}

	store := newFakeStore()
	metrics := &fakeMetrics{}

	h := NewHandler(Config{
		Store:      store,
		Users:      users,
		Courses:    courses,
		Verifier:   verifier,
		Emitter:    telemetry.NewEmitter("planner-service", nil),
		Metrics:    metrics,
		Logger:     slog.Default(),
		CORSOrigin: "*",
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &testEnv{store: store, metrics: metrics, mux: mux}
}

// validToken выпускает тестовый токен с часовым сроком жизни.
func validToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func expiredToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *testEnv) do(method, path, token, correlationID string, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if correlationID != "" {
		r.Header.Set("x-correlation-id", correlationID)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, r)
	return w
}

// --- Аутентификация ---

func TestAuth_Rejections(t *testing.T) {
	env := newTestEnv(t, true, true)

	tests := []struct {
		name       string
		authHeader string
		wantBody   string
	}{
		{name: "missing header", authHeader: "", wantBody: "Authorization header required"},
		{name: "malformed header", authHeader: "nonsense", wantBody: "Invalid Authorization header"},
		{name: "wrong scheme", authHeader: "Basic abc", wantBody: "Invalid Authorization header"},
		{name: "expired token", authHeader: "Bearer " + expiredToken(t), wantBody: "Token has expired"},
		{name: "garbage token", authHeader: "Bearer not.a.token", wantBody: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/study-sessions", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			env.mux.ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("expected body with %q, got %q", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestAuth_ValidTokenPasses(t *testing.T) {
	env := newTestEnv(t, true, true)

	w := env.do("GET", "/study-sessions", validToken(t), "", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

// Проверенные claims попадают в контекст и доступны обработчику.
func TestAuth_ClaimsReachHandler(t *testing.T) {
	verifier, err := auth.NewVerifier(auth.Options{Secret: testSecret})
	if err != nil {
		t.Fatalf("create verifier: %v", err)
	}
	h := NewHandler(Config{
		Verifier: verifier,
		Emitter:  telemetry.NewEmitter("planner-service", nil),
	})

	var gotSub string
	chain := Chain(h.Correlation(), h.Auth())
	protected := chain(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
			gotSub = claims.UserID()
		}
	}))

	r := httptest.NewRequest("GET", "/study-sessions", nil)
	r.Header.Set("Authorization", "Bearer "+validToken(t))
	protected.ServeHTTP(httptest.NewRecorder(), r)

	if gotSub != "1" {
		t.Errorf("expected subject 1 in handler context, got %q", gotSub)
	}
}

func TestHealth_SkipsAuth(t *testing.T) {
	env := newTestEnv(t, true, true)

	w := env.do("GET", "/healthz", "", "", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 without token, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

// --- Correlation id ---

func TestCorrelation_EchoesInboundHeader(t *testing.T) {
	env := newTestEnv(t, true, true)

	// Заголовок возвращается неизменным и на успехе, и на ошибке.
	success := env.do("GET", "/study-sessions", validToken(t), "my-trace-id", "")
	if got := success.Header().Get("x-correlation-id"); got != "my-trace-id" {
		t.Errorf("expected my-trace-id on success, got %q", got)
	}

	unauthorized := env.do("GET", "/study-sessions", "", "my-trace-id", "")
	if unauthorized.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", unauthorized.Code)
	}
	if got := unauthorized.Header().Get("x-correlation-id"); got != "my-trace-id" {
		t.Errorf("expected my-trace-id on error, got %q", got)
	}
}

func TestCorrelation_MintsFreshIDs(t *testing.T) {
	env := newTestEnv(t, true, true)

	w1 := env.do("GET", "/healthz", "", "", "")
	w2 := env.do("GET", "/healthz", "", "", "")

	id1 := w1.Header().Get("x-correlation-id")
	id2 := w2.Header().Get("x-correlation-id")

	if id1 == "" || id2 == "" {
		t.Fatal("expected correlation ids on responses")
	}
	if id1 == id2 {
		t.Errorf("expected distinct ids, both were %q", id1)
	}
}

// --- Метрики ---

// Метрика уходит ровно один раз на запрос, какой бы ветвью
// ни был сформирован ответ.
func TestMetrics_OncePerRequestOnEveryPath(t *testing.T) {
	tests := []struct {
		name    string
		userOK  staticChecker
		request func(env *testEnv) *httptest.ResponseRecorder
		status  int
	}{
		{
			name:   "success",
			userOK: true,
			request: func(env *testEnv) *httptest.ResponseRecorder {
				return env.do("GET", "/study-sessions", validToken(t), "trace-1", "")
			},
			status: http.StatusOK,
		},
		{
			name:   "auth failure",
			userOK: true,
			request: func(env *testEnv) *httptest.ResponseRecorder {
				return env.do("GET", "/study-sessions", "", "trace-1", "")
			},
			status: http.StatusUnauthorized,
		},
		{
			name:   "not found",
			userOK: true,
			request: func(env *testEnv) *httptest.ResponseRecorder {
				return env.do("GET", "/study-sessions/999", validToken(t), "trace-1", "")
			},
			status: http.StatusNotFound,
		},
		{
			name:   "validation error",
			userOK: false,
			request: func(env *testEnv) *httptest.ResponseRecorder {
				body := `{"user_id":1,"course_id":2,"title":"Algebra","start_time":"2024-01-01T10:00:00","end_time":"2024-01-01T11:00:00"}`
				return env.do("POST", "/study-sessions", validToken(t), "trace-1", body)
			},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.userOK, true)

			w := tt.request(env)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}

			calls := env.metrics.recorded()
			if len(calls) != 1 {
				t.Fatalf("expected exactly 1 metric, got %d", len(calls))
			}
			if calls[0].correlationID != "trace-1" {
				t.Errorf("expected correlation id trace-1, got %q", calls[0].correlationID)
			}
			if calls[0].duration < 0 {
				t.Errorf("expected non-negative duration, got %v", calls[0].duration)
			}
		})
	}
}

// --- CORS ---

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t, true, true)

	r := httptest.NewRequest(http.MethodOptions, "/study-sessions", nil)
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Errorf("expected Authorization in allowed headers")
	}
}

func TestCORS_HeadersOnNormalResponse(t *testing.T) {
	env := newTestEnv(t, true, true)

	w := env.do("GET", "/healthz", "", "", "")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected CORS header on response, got %q", got)
	}
}

// --- Recovery ---

func TestRecovery_PanicBecomes500(t *testing.T) {
	verifier, _ := auth.NewVerifier(auth.Options{Secret: testSecret})
	h := NewHandler(Config{
		Store:      newFakeStore(),
		Users:      staticChecker(true),
		Courses:    staticChecker(true),
		Verifier:   verifier,
		Emitter:    telemetry.NewEmitter("planner-service", nil),
		Logger:     slog.Default(),
		CORSOrigin: "*",
	})

	chain := Chain(h.Recovery(), h.Correlation())
	panicking := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(fmt.Errorf("boom"))
	}))

	w := httptest.NewRecorder()
	panicking.ServeHTTP(w, httptest.NewRequest("GET", "/study-sessions", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", w.Code)
	}
}
