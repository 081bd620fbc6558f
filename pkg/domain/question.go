package domain

import "slices"

// AnswerType defines how an answer to a question is validated.
type AnswerType string

const (
	AnswerText   AnswerType = "text"   // Any non-blank text
	AnswerNumber AnswerType = "number" // Strictly positive decimal integer
	AnswerChoice AnswerType = "choice" // Exact member of the question's choices
)

// Valid reports whether t is one of the known answer types.
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerText, AnswerNumber, AnswerChoice:
		return true
	}
	return false
}

// QuestionSpec describes a single question of the catalog.
type QuestionSpec struct {
	// Prompt is the text shown to the user.
	Prompt string `json:"prompt" yaml:"prompt" mapstructure:"prompt"`

	// Type selects the validation policy.
	Type AnswerType `json:"type" yaml:"type" mapstructure:"type"`

	// Key names the answer in ConversationState.Answers. Unique across a catalog.
	Key string `json:"key" yaml:"key" mapstructure:"key"`

	// Choices lists the accepted answers. Only set when Type == AnswerChoice.
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty" mapstructure:"choices"`

	// Fallback is the text used by template summaries when the answer is missing.
	Fallback string `json:"fallback,omitempty" yaml:"fallback,omitempty" mapstructure:"fallback"`
}

// HasChoice reports whether answer exactly matches one of the choices.
func (q QuestionSpec) HasChoice(answer string) bool {
	return slices.Contains(q.Choices, answer)
}

func (q QuestionSpec) clone() QuestionSpec {
	q.Choices = slices.Clone(q.Choices)
	return q
}
