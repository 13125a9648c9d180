//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/mapstreak/geoquiz/pkg/http/ws"
)

func TestWebSocketJoinSession(t *testing.T) {
	baseHTTP := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/play")

	player := createGuest(t, baseHTTP, "WSPlayer")
	sess := startSession(t, baseHTTP, player.AccessToken)

	conn := dialPlayWS(t, baseWS, player.AccessToken)
	defer conn.Close()

	sendJoinSession(t, conn, sess.SessionID)

	state := waitForMessage(t, conn, wsmsg.TypeSessionState, 10*time.Second)
	var statePayload wsmsg.SessionStatePayload
	if err := json.Unmarshal(state.Payload, &statePayload); err != nil {
		t.Fatalf("decode session_state payload: %v", err)
	}
	if statePayload.SessionID != sess.SessionID {
		t.Fatalf("joined wrong session: %s vs %s", statePayload.SessionID, sess.SessionID)
	}

	question := waitForMessage(t, conn, wsmsg.TypeQuestion, 10*time.Second)
	var questionPayload wsmsg.QuestionPayload
	if err := json.Unmarshal(question.Payload, &questionPayload); err != nil {
		t.Fatalf("decode question payload: %v", err)
	}
	if questionPayload.Token == "" {
		t.Fatal("question token is empty")
	}
}

func TestWebSocketSubmitBroadcast(t *testing.T) {
	baseHTTP := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/play")

	player := createGuest(t, baseHTTP, "WSMirror")
	sess := startSession(t, baseHTTP, player.AccessToken)

	// Two devices on the same session; both must see the answer result.
	connA := dialPlayWS(t, baseWS, player.AccessToken)
	defer connA.Close()
	connB := dialPlayWS(t, baseWS, player.AccessToken)
	defer connB.Close()

	sendJoinSession(t, connA, sess.SessionID)
	waitForMessage(t, connA, wsmsg.TypeSessionState, 10*time.Second)
	sendJoinSession(t, connB, sess.SessionID)
	waitForMessage(t, connB, wsmsg.TypeSessionState, 10*time.Second)

	submit := wsmsg.SubmitAnswerPayload{
		SessionID:  sess.SessionID,
		QuestionID: sess.Question.ID,
		Token:      sess.Question.Token,
	}
	idx := 0
	submit.OptionIndex = &idx
	raw, _ := json.Marshal(submit)

	connA.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := connA.WriteJSON(wsmsg.Message{Type: wsmsg.TypeSubmitAnswer, Payload: raw}); err != nil {
		t.Fatalf("failed to send submit_answer: %v", err)
	}

	resultA := waitForMessage(t, connA, wsmsg.TypeAnswerResult, 10*time.Second)
	resultB := waitForMessage(t, connB, wsmsg.TypeAnswerResult, 10*time.Second)

	var payloadA, payloadB wsmsg.AnswerResultPayload
	if err := json.Unmarshal(resultA.Payload, &payloadA); err != nil {
		t.Fatalf("decode answer_result A: %v", err)
	}
	if err := json.Unmarshal(resultB.Payload, &payloadB); err != nil {
		t.Fatalf("decode answer_result B: %v", err)
	}
	if payloadA.QuestionID != payloadB.QuestionID {
		t.Fatalf("devices saw different results: %s vs %s", payloadA.QuestionID, payloadB.QuestionID)
	}
}

func dialPlayWS(t *testing.T, wsBase, token string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(wsBase)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func sendJoinSession(t *testing.T, conn *websocket.Conn, sessionID string) {
	t.Helper()

	raw, _ := json.Marshal(wsmsg.JoinSessionPayload{SessionID: sessionID})
	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(wsmsg.Message{Type: wsmsg.TypeJoinSession, Payload: raw}); err != nil {
		t.Fatalf("failed to send join_session: %v", err)
	}
}

func waitForMessage(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read ws message failed: %v", err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("timeout waiting for %s", msgType)
	return wsmsg.Message{}
}
