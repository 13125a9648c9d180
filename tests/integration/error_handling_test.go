//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestUnauthorizedAccess(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	// Protected endpoint without a token.
	resp := makeAuthenticatedRequest(t, "GET", fmt.Sprintf("%s/v1/users/me", baseURL), "", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("expected 401, got %d, error: %v", resp.StatusCode, errResp)
	}

	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}

	if errResp["error"] == nil {
		t.Fatal("error field is missing")
	}
}

func TestSessionNotFound(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	guest := createGuest(t, baseURL, "Seeker")

	resp := makeAuthenticatedRequest(t, "GET", fmt.Sprintf("%s/v1/sessions/00000000-0000-0000-0000-000000000000", baseURL), guest.AccessToken, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("expected 404, got %d, error: %v", resp.StatusCode, errResp)
	}

	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}
	if errResp["error"] != "session_not_found" {
		t.Fatalf("expected error code 'session_not_found', got %v", errResp["error"])
	}
}

func TestInvalidSessionID(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	guest := createGuest(t, baseURL, "Mistyper")

	resp := makeAuthenticatedRequest(t, "GET", fmt.Sprintf("%s/v1/sessions/not-a-uuid", baseURL), guest.AccessToken, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("expected 400, got %d, error: %v", resp.StatusCode, errResp)
	}

	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}
	if errResp["error"] != "invalid_session_id" {
		t.Fatalf("expected error code 'invalid_session_id', got %v", errResp["error"])
	}
}

func TestUnknownLeaderboardWindow(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	resp, err := http.Get(fmt.Sprintf("%s/v1/leaderboards/fortnightly", baseURL))
	if err != nil {
		t.Fatalf("leaderboard request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("expected 404, got %d, error: %v", resp.StatusCode, errResp)
	}

	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}
	if errResp["error"] != "unknown_leaderboard_window" {
		t.Fatalf("expected error code 'unknown_leaderboard_window', got %v", errResp["error"])
	}
}

func TestDailyLeaderboard(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	resp, err := http.Get(fmt.Sprintf("%s/v1/leaderboards/daily?limit=5", baseURL))
	if err != nil {
		t.Fatalf("leaderboard request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Window string        `json:"window"`
		Top    []interface{} `json:"top"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode leaderboard response failed: %v", err)
	}
	if out.Window != "daily" {
		t.Fatalf("expected daily window, got %q", out.Window)
	}
}

func TestInvalidJSONPayload(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/v1/auth/register", baseURL), nil)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Body = http.NoBody

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("expected 400, got %d, error: %v", resp.StatusCode, errResp)
	}

	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}

	if errResp["error"] == nil {
		t.Fatal("error field is missing")
	}
}
