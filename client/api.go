package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// API is the thin REST client the sync engine replays queued mutations
// against.
type API struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPI(baseURL string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the access token used on every request.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) PostTaskProgress(ctx context.Context, taskID int64, value int, date string) error {
	return a.post(ctx, fmt.Sprintf("/api/tasks/%d/progress", taskID), map[string]any{
		"value":  value,
		"date":   date,
		"synced": true,
	})
}

func (a *API) PostChallengeProgress(ctx context.Context, challengeID int64, value int, date string) error {
	return a.post(ctx, fmt.Sprintf("/api/challenges/%d/progress", challengeID), map[string]any{
		"value":  value,
		"date":   date,
		"synced": true,
	})
}

func (a *API) PostChatMessage(ctx context.Context, challengeID int64, content, clientID string) error {
	return a.post(ctx, fmt.Sprintf("/api/challenges/%d/messages", challengeID), map[string]any{
		"content":   content,
		"client_id": clientID,
		"synced":    true,
	})
}

func (a *API) MarkSynced(ctx context.Context) error {
	return a.post(ctx, "/api/user/synced", map[string]any{})
}

func (a *API) post(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	a.mu.RLock()
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	a.mu.RUnlock()

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", http.MethodPost, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", http.MethodPost, path, resp.StatusCode)
	}
	return nil
}
