package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Validator checks a candidate identity against the room server before a
// session is started.
type Validator struct {
	baseURL string
	client  *http.Client
}

// NewValidator creates a Validator against the given server base URL
// (e.g. "http://localhost:8080").
func NewValidator(baseURL string) *Validator {
	return &Validator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type checkRequest struct {
	Username     string `json:"username"`
	SecurityCode string `json:"security_code"`
}

type checkResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Check asks the server whether the name may join the room. A rejection is
// not an error: err is non-nil only when the request itself failed.
func (v *Validator) Check(ctx context.Context, id Identity) (accepted bool, reason string, err error) {
	body, err := json.Marshal(checkRequest{Username: id.Username, SecurityCode: id.RoomCode})
	if err != nil {
		return false, "", fmt.Errorf("failed to encode validation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/check_username", bytes.NewReader(body))
	if err != nil {
		return false, "", fmt.Errorf("failed to build validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, "", fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	var result checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, "", fmt.Errorf("failed to decode validation response: %w", err)
	}

	if !result.Success {
		reason = result.Error
		if reason == "" {
			reason = "identity rejected"
		}
		return false, reason, nil
	}
	return true, "", nil
}
