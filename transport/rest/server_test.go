package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-session/internal/notify"
	"github.com/rocketscienceinc/tictactoe-session/internal/repository"
	"github.com/rocketscienceinc/tictactoe-session/internal/snapshot"
	"github.com/rocketscienceinc/tictactoe-session/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewSessionManager(logger, repository.NewMemorySessionRepository(), notify.NewMemoryNotifier())

	server := httptest.NewServer(New(logger, manager).Handler())
	t.Cleanup(server.Close)

	return server
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func createSession(t *testing.T, server *httptest.Server) snapshot.Snapshot {
	t.Helper()

	resp := do(t, http.MethodPost, server.URL+"/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return decodeBody[snapshot.Snapshot](t, resp)
}

func TestPing(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, http.MethodGet, server.URL+"/ping", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestSessions_NetworkScenario(t *testing.T) {
	server := newTestServer(t)

	// Given: a fresh session
	created := createSession(t, server)
	sessionURL := server.URL + "/sessions/" + created.ID

	// When: it is fetched
	resp := do(t, http.MethodGet, sessionURL, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fresh := decodeBody[snapshot.Snapshot](t, resp)

	// Then: the board is empty, X is active and the game is in progress
	assert.Equal(t, make([]string, 9), cellsOf(fresh))
	assert.Equal(t, "X", fresh.Turn.String())
	assert.Equal(t, "in_progress", fresh.Outcome)
	assert.Equal(t, uint64(0), fresh.Version)

	// When: the same proposal is sent twice
	first := do(t, http.MethodPut, sessionURL, `{"cell":4}`)
	second := do(t, http.MethodPut, sessionURL, `{"cell":4}`)

	// Then: the first is applied and the second is rejected as occupied with the current snapshot
	require.Equal(t, http.StatusOK, first.StatusCode)
	applied := decodeBody[snapshot.Snapshot](t, first)
	assert.Equal(t, "X", applied.Board[4].String())
	assert.Equal(t, "O", applied.Turn.String())

	require.Equal(t, http.StatusConflict, second.StatusCode)
	rejection := decodeBody[snapshot.Rejection](t, second)
	assert.Equal(t, snapshot.CodeCellOccupied, rejection.Code)
	require.NotNil(t, rejection.Game)
	assert.Equal(t, applied, *rejection.Game)
}

func TestSessions_TopRowWin(t *testing.T) {
	server := newTestServer(t)
	sessionURL := server.URL + "/sessions/" + createSession(t, server).ID

	var last snapshot.Snapshot
	for _, body := range []string{`{"cell":0}`, `{"cell":4}`, `{"cell":1}`, `{"cell":5}`, `{"cell":2}`} {
		resp := do(t, http.MethodPut, sessionURL, body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		last = decodeBody[snapshot.Snapshot](t, resp)
	}

	assert.Equal(t, "won", last.Outcome)
	assert.Equal(t, "X", last.Winner.String())

	// When: a move arrives after the win
	resp := do(t, http.MethodPut, sessionURL, `{"cell":8}`)

	// Then: game_over with the final board
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	rejection := decodeBody[snapshot.Rejection](t, resp)
	assert.Equal(t, snapshot.CodeGameOver, rejection.Code)
	assert.Equal(t, last, *rejection.Game)

	// When: the session is reset
	resp = do(t, http.MethodPost, sessionURL+"/reset", "")

	// Then: a fresh game with a newer version
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reset := decodeBody[snapshot.Snapshot](t, resp)
	assert.Equal(t, "in_progress", reset.Outcome)
	assert.Equal(t, last.Version+1, reset.Version)
}

func TestSessions_BadRequests(t *testing.T) {
	server := newTestServer(t)
	sessionURL := server.URL + "/sessions/" + createSession(t, server).ID

	tests := []struct {
		name   string
		method string
		url    string
		body   string
		status int
		code   string
	}{
		{"Out of range cell", http.MethodPut, sessionURL, `{"cell":9}`, http.StatusBadRequest, snapshot.CodeInvalidCell},
		{"Negative cell", http.MethodPut, sessionURL, `{"cell":-1}`, http.StatusBadRequest, snapshot.CodeInvalidCell},
		{"Missing cell", http.MethodPut, sessionURL, `{}`, http.StatusBadRequest, snapshot.CodeBadRequest},
		{"Not json", http.MethodPut, sessionURL, `cell=4`, http.StatusBadRequest, snapshot.CodeBadRequest},
		{"Unknown field", http.MethodPut, sessionURL, `{"cell":4,"mark":"O"}`, http.StatusBadRequest, snapshot.CodeBadRequest},
		{"Unknown session get", http.MethodGet, server.URL + "/sessions/missing", "", http.StatusNotFound, snapshot.CodeNotFound},
		{"Unknown session move", http.MethodPut, server.URL + "/sessions/missing", `{"cell":1}`, http.StatusNotFound, snapshot.CodeNotFound},
		{"Unknown session reset", http.MethodPost, server.URL + "/sessions/missing/reset", "", http.StatusNotFound, snapshot.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, tt.url, tt.body)

			require.Equal(t, tt.status, resp.StatusCode)
			rejection := decodeBody[snapshot.Rejection](t, resp)
			assert.Equal(t, tt.code, rejection.Code)
			assert.Nil(t, rejection.Game)
		})
	}

	// Then: none of the above touched the session
	resp := do(t, http.MethodGet, sessionURL, "")
	assert.Equal(t, uint64(0), decodeBody[snapshot.Snapshot](t, resp).Version)
}

func TestSessions_Delete(t *testing.T) {
	server := newTestServer(t)
	sessionURL := server.URL + "/sessions/" + createSession(t, server).ID

	resp := do(t, http.MethodDelete, sessionURL, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, sessionURL, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, sessionURL, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessions_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, http.MethodPatch, server.URL+"/sessions/abc", "")

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func cellsOf(snap snapshot.Snapshot) []string {
	cells := make([]string, 0, len(snap.Board))
	for _, cell := range snap.Board {
		cells = append(cells, cell.String())
	}

	return cells
}
