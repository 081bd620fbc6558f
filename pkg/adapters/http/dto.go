package http

import (
	"github.com/Tyler-Pritchard/Spokesperson"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

type turnResponse struct {
	SessionID string              `json:"session_id"`
	Question  domain.QuestionSpec `json:"question"`
	Prompt    string              `json:"next_question"`
	Stage     int                 `json:"stage"`
	Total     int                 `json:"total"`
	Warnings  []string            `json:"warnings,omitempty"`
}

func newTurnResponse(t *spokesperson.Turn) turnResponse {
	return turnResponse{
		SessionID: t.SessionID,
		Question:  t.Question,
		Prompt:    t.Prompt(),
		Stage:     t.Stage,
		Total:     t.Total,
		Warnings:  errorStrings(t.Warnings),
	}
}

type answerResponse struct {
	SessionID    string               `json:"session_id"`
	Kind         domain.ResultKind    `json:"kind"`
	NextQuestion string               `json:"next_question,omitempty"`
	Question     *domain.QuestionSpec `json:"question,omitempty"`
	Stage        int                  `json:"stage"`
	Summary      string               `json:"summary,omitempty"`
	Generated    bool                 `json:"generated,omitempty"`
	Answers      map[string]string    `json:"answers,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
}

func newAnswerResponse(sessionID string, res *domain.ProgressionResult) answerResponse {
	return answerResponse{
		SessionID:    sessionID,
		Kind:         res.Kind,
		NextQuestion: res.Prompt,
		Question:     res.Question,
		Stage:        res.Stage,
		Summary:      res.Summary,
		Generated:    res.Generated,
		Answers:      res.Answers,
		Warnings:     res.WarningMessages(),
	}
}

type invalidAnswerResponse struct {
	Error    string `json:"error"`
	Question string `json:"question"`
	Key      string `json:"key"`
	Reason   string `json:"reason"`
}

type historyResponse struct {
	SessionID string                `json:"session_id"`
	Answers   []domain.AnswerRecord `json:"answers"`
}

// streamEvent is the SSE payload for one saved state change.
type streamEvent struct {
	Type     spokesperson.EventType `json:"type"`
	Diff     *domain.StateDiff      `json:"diff,omitempty"`
	Prompt   string                 `json:"next_question,omitempty"`
	Summary  string                 `json:"summary,omitempty"`
	Warnings []string               `json:"warnings,omitempty"`
}

func newStreamEvent(ev spokesperson.Event) streamEvent {
	out := streamEvent{Type: ev.Type, Diff: ev.Diff}
	if ev.Turn != nil {
		out.Prompt = ev.Turn.Prompt()
	}
	if ev.Result != nil {
		out.Prompt = ev.Result.Prompt
		out.Summary = ev.Result.Summary
		out.Warnings = ev.Result.WarningMessages()
	}
	return out
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
