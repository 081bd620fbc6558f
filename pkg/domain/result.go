package domain

// ResultKind tells the transport which payload a ProgressionResult carries.
type ResultKind string

const (
	ResultNextQuestion         ResultKind = "next_question"
	ResultConversationComplete ResultKind = "conversation_complete"
)

// ProgressionResult is the outcome of an accepted answer.
type ProgressionResult struct {
	Kind ResultKind `json:"kind"`

	// Stage is the stage after the answer was applied.
	// For completed conversations it is 0 (the state has been reset).
	Stage int `json:"stage"`

	// Question is the next question descriptor (ResultNextQuestion only).
	Question *QuestionSpec `json:"question,omitempty"`

	// Prompt is the text to show for the next question. It may be a rephrased
	// version of Question.Prompt when follow-up phrasing is enabled.
	Prompt string `json:"prompt,omitempty"`

	// Summary is the closing message (ResultConversationComplete only).
	Summary string `json:"summary,omitempty"`

	// Generated is true when Summary came from the completion service.
	Generated bool `json:"generated,omitempty"`

	// Answers is the snapshot of collected answers at completion.
	Answers map[string]string `json:"answers,omitempty"`

	// Warnings holds non-fatal failures (PersistError, ProviderError).
	Warnings []error `json:"-"`
}

// Complete reports whether the result ends the conversation.
func (r *ProgressionResult) Complete() bool {
	return r.Kind == ResultConversationComplete
}

// WarningMessages returns the warnings as strings for serialization.
func (r *ProgressionResult) WarningMessages() []string {
	if len(r.Warnings) == 0 {
		return nil
	}
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.Error()
	}
	return out
}
