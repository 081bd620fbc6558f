package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/runner"
	"golang.org/x/net/websocket"
)

// GreetingMessage is the first frame sent on every WebSocket connection.
const GreetingMessage = "Welcome! You are now connected to the server."

// Frame types exchanged on the WebSocket channel.
const (
	FrameResponse = "response"
	FrameQuestion = "question"
	FrameSummary  = "summary"
	FrameError    = "error"
	FrameRestart  = "restart"
)

// inboundFrame is a client message: {"message": "..."} or {"type": "restart"}.
type inboundFrame struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// outboundFrame is a server message.
type outboundFrame struct {
	Type      string               `json:"type"`
	SessionID string               `json:"session_id,omitempty"`
	Message   string               `json:"message"`
	Question  *domain.QuestionSpec `json:"question,omitempty"`
	Stage     int                  `json:"stage,omitempty"`
	Answers   map[string]string    `json:"answers,omitempty"`
	Generated bool                 `json:"generated,omitempty"`
	Warnings  []string             `json:"warnings,omitempty"`
}

// websocketHandler serves GET /ws?session_id=...
// Each connection owns one session; the progression logic is the same as the HTTP routes.
func (s *Server) websocketHandler() http.Handler {
	return websocket.Server{
		// Browsers and CLI clients are both accepted; CORS is open on every route.
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   s.serveConversation,
	}
}

func (s *Server) serveConversation(ws *websocket.Conn) {
	defer ws.Close()
	ctx := ws.Request().Context()
	sessionID := strings.TrimSpace(ws.Request().URL.Query().Get("session_id"))

	if err := websocket.JSON.Send(ws, outboundFrame{Type: FrameResponse, Message: GreetingMessage}); err != nil {
		s.logger.Debug("websocket greeting failed", "error", err)
		return
	}

	turn, err := s.svc.Resume(ctx, sessionID)
	if err != nil {
		s.sendError(ws, err)
		return
	}
	sessionID = turn.SessionID
	s.logger.Info("websocket connected", "session_id", sessionID)
	if err := websocket.JSON.Send(ws, outboundFrame{
		Type:      FrameQuestion,
		SessionID: sessionID,
		Message:   turn.Prompt(),
		Question:  &turn.Question,
		Stage:     turn.Stage,
	}); err != nil {
		return
	}

	for {
		var in inboundFrame
		if err := websocket.JSON.Receive(ws, &in); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Debug("websocket closed", "session_id", sessionID, "error", err)
			return
		}

		out, err := s.handleFrame(ctx, sessionID, in)
		if err != nil {
			if !s.sendError(ws, err) {
				return
			}
			continue
		}
		if err := websocket.JSON.Send(ws, out); err != nil {
			return
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, sessionID string, in inboundFrame) (outboundFrame, error) {
	if strings.EqualFold(in.Type, FrameRestart) {
		turn, err := s.svc.Restart(ctx, sessionID)
		if err != nil {
			return outboundFrame{}, err
		}
		return outboundFrame{
			Type:      FrameQuestion,
			SessionID: sessionID,
			Message:   turn.Prompt(),
			Question:  &turn.Question,
			Stage:     turn.Stage,
		}, nil
	}

	input, err := runner.SanitizeInputWithLimit(in.Message, s.maxInput)
	if err != nil {
		return outboundFrame{}, err
	}
	res, err := s.svc.Submit(ctx, sessionID, input)
	if err != nil {
		return outboundFrame{}, err
	}
	if res.Complete() {
		return outboundFrame{
			Type:      FrameSummary,
			SessionID: sessionID,
			Message:   res.Summary,
			Stage:     res.Stage,
			Answers:   res.Answers,
			Generated: res.Generated,
			Warnings:  res.WarningMessages(),
		}, nil
	}
	return outboundFrame{
		Type:      FrameQuestion,
		SessionID: sessionID,
		Message:   res.Prompt,
		Question:  res.Question,
		Stage:     res.Stage,
		Warnings:  res.WarningMessages(),
	}, nil
}

// sendError writes an error frame. It reports false when the connection is gone.
func (s *Server) sendError(ws *websocket.Conn, err error) bool {
	msg := err.Error()
	var invalid *domain.InvalidAnswerError
	switch {
	case errors.As(err, &invalid):
		msg = invalid.Reason + ". " + invalid.Question.Prompt
	case errors.Is(err, domain.ErrConversationAlreadyComplete):
		msg = "The conversation is complete. Send {\"type\":\"restart\"} to begin again."
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8),
		errors.Is(err, domain.ErrSessionNotFound):
	default:
		s.logger.Error("websocket request failed", "error", err)
		msg = "internal error"
	}
	return websocket.JSON.Send(ws, outboundFrame{Type: FrameError, Message: msg}) == nil
}
