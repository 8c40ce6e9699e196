// Package client talks to a session authority over HTTP and mirrors one session locally.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/snapshot"
)

const (
	maxResponseBytes = 64 << 10
	defaultTimeout   = 10 * time.Second
)

// API is a thin HTTP client of the session routes. Every failure wraps one of the apperror sentinels:
// rejections map back from their wire code, network failures wrap ErrTransport and undecodable bodies
// wrap ErrMalformedSnapshot.
type API struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPI - a nil httpClient gets a default client with a request timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (that *API) Create(ctx context.Context) (*entity.Session, error) {
	return that.do(ctx, http.MethodPost, "/sessions", nil)
}

func (that *API) Fetch(ctx context.Context, id string) (*entity.Session, error) {
	return that.do(ctx, http.MethodGet, sessionPath(id), nil)
}

// Propose - asks the authority to apply a move for whichever mark is active. A rejected move returns
// the authority's current session alongside the error when the response carried one.
func (that *API) Propose(ctx context.Context, id string, index entity.CellIndex) (*entity.Session, error) {
	offset := index.Offset()

	body, err := json.Marshal(snapshot.Move{Cell: &offset})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal move: %w", err)
	}

	return that.do(ctx, http.MethodPut, sessionPath(id), body)
}

func (that *API) Reset(ctx context.Context, id string) (*entity.Session, error) {
	return that.do(ctx, http.MethodPost, sessionPath(id)+"/reset", nil)
}

func (that *API) Delete(ctx context.Context, id string) error {
	_, err := that.do(ctx, http.MethodDelete, sessionPath(id), nil)
	return err
}

func sessionPath(id string) string {
	return "/sessions/" + url.PathEscape(id)
}

func (that *API) do(ctx context.Context, method, path string, body []byte) (*entity.Session, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, that.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrTransport, err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := that.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", apperror.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", apperror.ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return snapshot.Decode(payload)
	default:
		return rejected(resp.StatusCode, payload)
	}
}

// rejected turns an error response into the matching sentinel and, when present, the session the
// authority judged the request against.
func rejected(status int, payload []byte) (*entity.Session, error) {
	var rejection snapshot.Rejection

	if err := json.Unmarshal(payload, &rejection); err != nil || rejection.Code == "" {
		return nil, fmt.Errorf("%w: unexpected status %d", apperror.ErrTransport, status)
	}

	reason := fmt.Errorf("%w: %s", snapshot.ErrorFor(rejection.Code), rejection.Error)

	if rejection.Game == nil {
		return nil, reason
	}

	current, err := rejection.Game.Session()
	if err != nil {
		return nil, fmt.Errorf("%w: rejection carried a bad session: %w", reason, err)
	}

	return current, reason
}
