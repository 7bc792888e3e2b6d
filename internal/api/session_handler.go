package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shaiso/Planner/internal/auth"
	"github.com/shaiso/Planner/internal/correlation"
)

// ListSessions обрабатывает GET /study-sessions.
// Опциональный query параметр user_id фильтрует по пользователю.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := optionalUserID(r)
	if err != nil {
		BadRequest(w, "Invalid user_id")
		return
	}

	sessions, err := h.store.List(r.Context(), userID)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	out := SessionsFromDomain(sessions)
	if out == nil {
		out = []SessionResponse{}
	}
	JSON(w, http.StatusOK, out)
}

// GetSession обрабатывает GET /study-sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.store.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "Session not found") {
		h.emitError(r, err)
		return
	}

	JSON(w, http.StatusOK, SessionFromDomain(session))
}

// CreateSession обрабатывает POST /study-sessions.
//
// Перед вставкой проверяется существование пользователя и курса
// в их сервисах; несуществующая ссылка — 400, запись не создаётся.
// Дедупликации нет: повторный идентичный запрос создаст дубликат.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	correlationID := correlation.FromContext(r.Context())

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}

	session, err := req.Validate()
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	if !h.users.Exists(r.Context(), session.UserID) {
		h.emitter.Error(r.URL.Path, correlationID,
			fmt.Sprintf("user %d does not exist, rejecting create", session.UserID))
		BadRequest(w, "User does not exist")
		return
	}

	if !h.courses.Exists(r.Context(), session.CourseID) {
		h.emitter.Error(r.URL.Path, correlationID,
			fmt.Sprintf("course %d does not exist, rejecting create", session.CourseID))
		BadRequest(w, "Course does not exist")
		return
	}

	created, err := h.store.Create(r.Context(), session)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	actor := "unknown"
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		actor = claims.UserID()
	}
	h.emitter.Info(r.URL.Path, correlationID,
		fmt.Sprintf("created study session %d for user %d by sub %s", created.ID, created.UserID, actor))
	JSON(w, http.StatusCreated, SessionFromDomain(created))
}

// UpdateSession обрабатывает PUT /study-sessions/{id}.
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}

	session, err := req.Validate()
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	updated, err := h.store.Update(r.Context(), id, session)
	if HandleRepoError(w, h.logger, err, "Session not found") {
		h.emitError(r, err)
		return
	}

	JSON(w, http.StatusOK, SessionFromDomain(updated))
}

// CompleteSession обрабатывает POST /study-sessions/{id}/complete.
// Идемпотентно: повторный вызов для существующей записи тоже успешен.
func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	err := h.store.Complete(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "Session not found") {
		h.emitError(r, err)
		return
	}

	Message(w, http.StatusOK, "Session marked as completed")
}

// RescheduleSession обрабатывает PUT /study-sessions/{id}/reschedule.
// Новое окно передаётся query параметрами new_start и new_end.
func (h *Handler) RescheduleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	start, err := ParseTime(r.URL.Query().Get("new_start"))
	if err != nil {
		BadRequest(w, "Invalid new_start")
		return
	}
	end, err := ParseTime(r.URL.Query().Get("new_end"))
	if err != nil {
		BadRequest(w, "Invalid new_end")
		return
	}

	err = h.store.Reschedule(r.Context(), id, start, end)
	if HandleRepoError(w, h.logger, err, "Session not found") {
		h.emitError(r, err)
		return
	}

	Message(w, http.StatusOK, "Session rescheduled")
}

// DeleteSession обрабатывает DELETE /study-sessions/{id}.
// Отсутствие записи не считается ошибкой.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Message(w, http.StatusOK, "Session deleted")
}

// DeleteAllSessions обрабатывает DELETE /study-sessions.
// Опциональный user_id ограничивает удаление одним пользователем.
func (h *Handler) DeleteAllSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := optionalUserID(r)
	if err != nil {
		BadRequest(w, "Invalid user_id")
		return
	}

	if err := h.store.DeleteAll(r.Context(), userID); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Message(w, http.StatusOK, "Sessions deleted")
}

// Health обрабатывает GET /healthz: проверяет доступность БД.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		JSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Error:  err.Error(),
		})
		return
	}
	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// sessionID извлекает и валидирует {id} из пути.
func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(w, "Invalid session id")
		return 0, false
	}
	return id, true
}

// optionalUserID извлекает опциональный query параметр user_id.
func optionalUserID(r *http.Request) (*int64, error) {
	v := r.URL.Query().Get("user_id")
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// emitError пишет причину клиентской ошибки в телеметрию.
func (h *Handler) emitError(r *http.Request, err error) {
	h.emitter.Error(r.URL.Path, correlation.FromContext(r.Context()), err.Error())
}
