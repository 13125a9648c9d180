//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type guestInfo struct {
	ID          string
	AccessToken string
}

type userInfo struct {
	ID           string
	AccessToken  string
	RefreshToken string
}

// sessionInfo is the slice of the session view the tests care about.
type sessionInfo struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	State     struct {
		Score    int  `json:"score"`
		Hearts   int  `json:"hearts"`
		Level    int  `json:"level"`
		GameOver bool `json:"game_over"`
	} `json:"state"`
	Question *struct {
		ID      string   `json:"id"`
		Type    string   `json:"type"`
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
		Token   string   `json:"token"`
	} `json:"question"`
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func createGuest(t *testing.T, baseURL, displayName string) guestInfo {
	t.Helper()

	payload := map[string]string{
		"display_name": fmt.Sprintf("%s-%d", displayName, time.Now().UnixNano()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal guest payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/guest", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create guest request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected guest response status: %d", resp.StatusCode)
	}

	var out struct {
		GuestID     string `json:"guest_id"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode guest response failed: %v", err)
	}

	if out.AccessToken == "" {
		t.Fatalf("empty access token in guest response")
	}

	return guestInfo{
		ID:          out.GuestID,
		AccessToken: out.AccessToken,
	}
}

func createRegisteredUser(t *testing.T, baseURL, email, password string) userInfo {
	t.Helper()

	payload := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": "IntegrationUser",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal register payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/register", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("unexpected register response status: %d, error: %v", resp.StatusCode, errResp)
	}

	return decodeUserInfo(t, resp)
}

func loginUser(t *testing.T, baseURL, email, password string) userInfo {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal login payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/login", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("unexpected login response status: %d, error: %v", resp.StatusCode, errResp)
	}

	return decodeUserInfo(t, resp)
}

func decodeUserInfo(t *testing.T, resp *http.Response) userInfo {
	t.Helper()

	var out struct {
		UserID       string `json:"user_id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode auth response failed: %v", err)
	}
	return userInfo{
		ID:           out.UserID,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
}

func makeAuthenticatedRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func startSession(t *testing.T, baseURL, token string) sessionInfo {
	t.Helper()

	resp := makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/sessions", baseURL), token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("unexpected start session status: %d, error: %v", resp.StatusCode, errResp)
	}

	var sess sessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session response failed: %v", err)
	}
	if sess.SessionID == "" {
		t.Fatal("session id is empty")
	}
	if sess.Question == nil {
		t.Fatal("new session has no question")
	}
	return sess
}
