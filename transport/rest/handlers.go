package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/snapshot"
)

const maxBodyBytes = 1 << 10

type Handlers interface {
	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	ProposeMove(w http.ResponseWriter, r *http.Request)
	ResetSession(w http.ResponseWriter, r *http.Request)
	DeleteSession(w http.ResponseWriter, r *http.Request)
}

type handlers struct {
	logger   *slog.Logger
	sessions sessionUseCase
}

func NewHandlers(logger *slog.Logger, sessions sessionUseCase) Handlers {
	return &handlers{
		logger:   logger,
		sessions: sessions,
	}
}

func (that *handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.CreateSession(r.Context())
	if err != nil {
		that.writeError(w, "CreateSession", err, nil)
		return
	}

	that.writeSession(w, http.StatusCreated, session)
}

func (that *handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, "GetSession", err, nil)
		return
	}

	that.writeSession(w, http.StatusOK, session)
}

// ProposeMove - body {"cell": n}. Answers with the accepted snapshot, or with a rejection carrying the
// snapshot the move was judged against.
func (that *handlers) ProposeMove(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		that.writeError(w, "ProposeMove", errors.Join(apperror.ErrMalformedSnapshot, err), nil)
		return
	}

	offset, err := snapshot.DecodeMove(body)
	if err != nil {
		that.writeError(w, "ProposeMove", err, nil)
		return
	}

	session, err := that.sessions.ProposeMove(r.Context(), r.PathValue("id"), offset)
	if err != nil {
		that.writeError(w, "ProposeMove", err, session)
		return
	}

	that.writeSession(w, http.StatusOK, session)
}

func (that *handlers) ResetSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.ResetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, "ResetSession", err, nil)
		return
	}

	that.writeSession(w, http.StatusOK, session)
}

func (that *handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := that.sessions.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		that.writeError(w, "DeleteSession", err, nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeSession(w http.ResponseWriter, status int, session *entity.Session) {
	writeJSON(that.logger, w, status, snapshot.FromSession(session))
}

func (that *handlers) writeError(w http.ResponseWriter, method string, err error, current *entity.Session) {
	code := snapshot.CodeFor(err)
	status := statusFor(err, code)

	rejection := snapshot.Rejection{
		Error: err.Error(),
		Code:  code,
	}

	if current != nil {
		game := snapshot.FromSession(current)
		rejection.Game = &game
	}

	if status >= http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		rejection.Error = http.StatusText(status)
	}

	writeJSON(that.logger, w, status, rejection)
}

func statusFor(err error, code string) int {
	switch code {
	case snapshot.CodeCellOccupied, snapshot.CodeGameOver:
		return http.StatusConflict
	case snapshot.CodeInvalidCell, snapshot.CodeBadRequest:
		return http.StatusBadRequest
	case snapshot.CodeNotFound:
		return http.StatusNotFound
	}

	if errors.Is(err, apperror.ErrConflict) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}
