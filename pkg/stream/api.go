package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/avatarworks/go-avatar/internal/httpc"
)

// APIClient talks to the daemon's REST API.
type APIClient struct {
	baseURL string
}

// NewAPIClient creates an API client for an HTTP origin,
// e.g. "http://localhost:8080".
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/")}
}

// AvatarInfo mirrors the daemon's avatar resource.
type AvatarInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Variant      string  `json:"variant"`
	Enabled      bool    `json:"enabled"`
	Idling       bool    `json:"idling"`
	Frame        int     `json:"frame"`
	IdleInterval float64 `json:"idle_interval"`
}

// CreateAvatarOptions configures a new avatar. Zero values take the
// daemon's defaults.
type CreateAvatarOptions struct {
	Name         string  `json:"name,omitempty"`
	Animation    string  `json:"animation,omitempty"`
	Variant      string  `json:"variant,omitempty"`
	IdleInterval float64 `json:"idle_interval,omitempty"`
	LatchIdle    bool    `json:"latch_idle,omitempty"`
}

// ListAvatars returns all avatars the daemon is running.
func (a *APIClient) ListAvatars() ([]AvatarInfo, error) {
	resp, err := httpc.Get(a.baseURL + "/api/avatars")
	if err != nil {
		return nil, fmt.Errorf("list avatars request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result struct {
		Avatars []AvatarInfo `json:"avatars"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode avatar list: %w", err)
	}
	return result.Avatars, nil
}

// GetAvatar returns one avatar by ID.
func (a *APIClient) GetAvatar(id string) (*AvatarInfo, error) {
	resp, err := httpc.Get(a.baseURL + "/api/avatars/" + id)
	if err != nil {
		return nil, fmt.Errorf("get avatar request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var info AvatarInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode avatar: %w", err)
	}
	return &info, nil
}

// CreateAvatar creates a new avatar and starts its stream.
func (a *APIClient) CreateAvatar(opts CreateAvatarOptions) (*AvatarInfo, error) {
	payload, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal avatar options: %w", err)
	}

	resp, err := httpc.Post(a.baseURL+"/api/avatars", "application/json", payload)
	if err != nil {
		return nil, fmt.Errorf("create avatar request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var info AvatarInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode created avatar: %w", err)
	}
	return &info, nil
}

// RemoveAvatar deletes an avatar and closes its stream.
func (a *APIClient) RemoveAvatar(id string) error {
	req, err := http.NewRequest(http.MethodDelete, a.baseURL+"/api/avatars/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("remove avatar request failed: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// Animations returns the daemon's registered animation names.
func (a *APIClient) Animations() ([]string, error) {
	resp, err := httpc.Get(a.baseURL + "/api/animations")
	if err != nil {
		return nil, fmt.Errorf("animations request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result struct {
		Animations []string `json:"animations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode animations: %w", err)
	}
	return result.Animations, nil
}

// checkStatus converts error responses into Go errors using the daemon's
// {error, detail} body when present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		if body.Detail != "" {
			return fmt.Errorf("api error %d: %s: %s", resp.StatusCode, body.Error, body.Detail)
		}
		return fmt.Errorf("api error %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("api error %d", resp.StatusCode)
}
