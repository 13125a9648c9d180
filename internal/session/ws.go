package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/auth"
	"github.com/mapstreak/geoquiz/internal/auth/jwt"
	"github.com/mapstreak/geoquiz/internal/engine"
	"github.com/mapstreak/geoquiz/internal/geo"
	httperrors "github.com/mapstreak/geoquiz/pkg/http/errors"
	ws "github.com/mapstreak/geoquiz/pkg/http/ws"
)

// wsUpgrader upgrades play connections. Origin checking is relaxed; the
// bearer token in the query is the real gate.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler serves the live play channel. Several devices can join the
// same session; every state mutation is broadcast to all of them.
type WSHandler struct {
	svc     *Service
	hub     *ws.Hub
	authSvc *auth.Service
	logger  zerolog.Logger
}

// NewWSHandler creates the play WebSocket handler.
func NewWSHandler(svc *Service, hub *ws.Hub, authSvc *auth.Service, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		svc:     svc,
		hub:     hub,
		authSvc: authSvc,
		logger:  logger.With().Str("component", "session_ws").Logger(),
	}
}

// HandleWebSocket handles GET /ws/play?token=...
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.handleConnection(conn, claims)
}

func (h *WSHandler) handleConnection(conn *websocket.Conn, claims *jwt.Claims) {
	connID := uuid.New()
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.Register(connID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), connID, claims, msg)
	})

	h.hub.Unregister(connID)
}

func (h *WSHandler) handleMessage(ctx context.Context, connID uuid.UUID, claims *jwt.Claims, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinSession:
		return h.handleJoin(ctx, connID, claims, msg.Payload)
	case ws.TypeNextQuestion:
		return h.handleNext(ctx, connID, claims, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmit(ctx, connID, claims, msg.Payload)
	case ws.TypeRestartSession:
		return h.handleRestart(ctx, connID, claims, msg.Payload)
	case ws.TypeResetSession:
		return h.handleReset(ctx, connID, claims, msg.Payload)
	case ws.TypeLeaveSession:
		return h.handleLeave(connID, msg.Payload)
	case ws.TypePing:
		return h.hub.Send(connID, ws.Message{Type: ws.TypePong})
	default:
		return h.sendError(connID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *WSHandler) handleJoin(ctx context.Context, connID uuid.UUID, claims *jwt.Claims, payload json.RawMessage) error {
	var req ws.JoinSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid join_session payload")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidSessionID, "Invalid session id")
	}

	view, err := h.svc.ViewByID(ctx, claims.UserID, sessionID)
	if err != nil {
		return h.sendServiceError(connID, err)
	}

	h.hub.JoinSession(sessionID, connID)

	// Bring the joining device up to date without disturbing the others.
	if err := h.hub.Send(connID, stateMessage(view.SessionID, view.State)); err != nil {
		return err
	}
	if view.Question != nil {
		return h.hub.Send(connID, questionMessage(view.SessionID, view.Question))
	}
	return nil
}

func (h *WSHandler) handleNext(ctx context.Context, connID uuid.UUID, claims *jwt.Claims, payload json.RawMessage) error {
	var req ws.NextQuestionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid next_question payload")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidSessionID, "Invalid session id")
	}

	q, err := h.svc.Next(ctx, claims.UserID, sessionID)
	if err != nil {
		return h.sendServiceError(connID, err)
	}

	return h.hub.BroadcastToSession(sessionID, questionMessage(sessionID.String(), q))
}

func (h *WSHandler) handleSubmit(ctx context.Context, connID uuid.UUID, claims *jwt.Claims, payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidSessionID, "Invalid session id")
	}

	submit := SubmitRequest{
		QuestionID:  req.QuestionID,
		Token:       req.Token,
		OptionIndex: req.OptionIndex,
	}
	if req.Tap != nil {
		tap := &TapRequest{
			Lng:           req.Tap.Lng,
			Lat:           req.Tap.Lat,
			RenderedCodes: req.Tap.RenderedCodes,
		}
		if sc := req.Tap.Screen; sc != nil {
			tap.Screen = &geo.ScreenContext{
				TargetMinX: sc.TargetMinX,
				TargetMinY: sc.TargetMinY,
				TargetMaxX: sc.TargetMaxX,
				TargetMaxY: sc.TargetMaxY,
				ClickX:     sc.ClickX,
				ClickY:     sc.ClickY,
			}
		}
		submit.Tap = tap
	}

	result, err := h.svc.Submit(ctx, claims.UserID, sessionID, submit)
	if err != nil {
		return h.sendServiceError(connID, err)
	}

	resultPayload := ws.AnswerResultPayload{
		SessionID:    sessionID.String(),
		QuestionID:   result.QuestionID,
		Correct:      result.Correct,
		CorrectIndex: result.CorrectIndex,
		CorrectValue: result.CorrectValue,
		Points:       result.Transition.Points,
		LeveledUp:    result.Transition.LeveledUp,
		HeartGained:  result.Transition.HeartGained,
		HeartLost:    result.Transition.HeartLost,
		GameOver:     result.Transition.GameOver,
		NewHighScore: result.Transition.NewHighScore,
	}
	raw, _ := json.Marshal(resultPayload)
	if err := h.hub.BroadcastToSession(sessionID, ws.Message{Type: ws.TypeAnswerResult, Payload: raw}); err != nil {
		h.logger.Warn().Err(err).Msg("answer result broadcast failed")
	}
	return h.hub.BroadcastToSession(sessionID, stateMessage(sessionID.String(), result.State))
}

func (h *WSHandler) handleRestart(ctx context.Context, connID uuid.UUID, claims *jwt.Claims, payload json.RawMessage) error {
	var req ws.RestartSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid restart_session payload")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidSessionID, "Invalid session id")
	}

	view, err := h.svc.Restart(ctx, claims.UserID, sessionID)
	if err != nil {
		return h.sendServiceError(connID, err)
	}
	return h.broadcastView(sessionID, view)
}

func (h *WSHandler) handleReset(ctx context.Context, connID uuid.UUID, claims *jwt.Claims, payload json.RawMessage) error {
	var req ws.ResetSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid reset_session payload")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidSessionID, "Invalid session id")
	}

	view, err := h.svc.Reset(ctx, claims.UserID, sessionID)
	if err != nil {
		return h.sendServiceError(connID, err)
	}
	return h.broadcastView(sessionID, view)
}

func (h *WSHandler) handleLeave(connID uuid.UUID, payload json.RawMessage) error {
	var req ws.LeaveSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid leave_session payload")
	}
	if sessionID, err := uuid.Parse(req.SessionID); err == nil {
		h.hub.LeaveSession(sessionID, connID)
	}
	return nil
}

func (h *WSHandler) broadcastView(sessionID uuid.UUID, view *View) error {
	if err := h.hub.BroadcastToSession(sessionID, stateMessage(view.SessionID, view.State)); err != nil {
		h.logger.Warn().Err(err).Msg("state broadcast failed")
	}
	if view.Question != nil {
		return h.hub.BroadcastToSession(sessionID, questionMessage(view.SessionID, view.Question))
	}
	return nil
}

func (h *WSHandler) sendServiceError(connID uuid.UUID, err error) error {
	switch err {
	case ErrNotFound:
		return h.sendError(connID, httperrors.ErrCodeSessionNotFound, "Session not found")
	case ErrForbidden:
		return h.sendError(connID, httperrors.ErrCodeForbidden, "Session belongs to another player")
	case ErrSessionOver:
		return h.sendError(connID, httperrors.ErrCodeSessionOver, "Session is over; restart to continue")
	case ErrNotOver:
		return h.sendError(connID, httperrors.ErrCodeSessionOver, "Session is still running")
	case ErrQuestionExpired:
		return h.sendError(connID, httperrors.ErrCodeQuestionExpired, "Question is no longer current")
	case ErrAlreadyAnswered:
		return h.sendError(connID, httperrors.ErrCodeAlreadyAnswered, "Question already answered")
	case ErrBadToken:
		return h.sendError(connID, httperrors.ErrCodeInvalidToken, "Question token mismatch")
	default:
		h.logger.Error().Err(err).Msg("session operation failed")
		return h.sendError(connID, httperrors.ErrCodeInternalError, "Session operation failed")
	}
}

func (h *WSHandler) sendError(connID uuid.UUID, code, message string) error {
	raw, _ := json.Marshal(ws.ErrorPayload{Code: code, Message: message})
	return h.hub.Send(connID, ws.Message{Type: ws.TypeError, Payload: raw})
}

func stateMessage(sessionID string, st *engine.State) ws.Message {
	payload := ws.SessionStatePayload{
		SessionID:      sessionID,
		Score:          st.Score,
		HighScore:      st.HighScore,
		Streak:         st.Streak,
		BestStreak:     st.BestStreak,
		Hearts:         st.Hearts,
		Level:          st.Level,
		CorrectInLevel: st.CorrectInLevel,
		GameOver:       st.GameOver,
	}
	raw, _ := json.Marshal(payload)
	return ws.Message{Type: ws.TypeSessionState, Payload: raw}
}

func questionMessage(sessionID string, q *QuestionView) ws.Message {
	payload := ws.QuestionPayload{
		SessionID:   sessionID,
		ID:          q.ID,
		Type:        string(q.Type),
		Prompt:      q.Prompt,
		Options:     q.Options,
		OptionCodes: q.OptionCodes,
		TargetCode:  q.TargetCode,
		Highlight:   q.Highlight,
		Asset:       q.Asset,
		Token:       q.Token,
	}
	if q.TargetBBox != nil {
		payload.TargetBBox = []float64{q.TargetBBox.West, q.TargetBBox.South, q.TargetBBox.East, q.TargetBBox.North}
	}
	raw, _ := json.Marshal(payload)
	return ws.Message{Type: ws.TypeQuestion, Payload: raw}
}
