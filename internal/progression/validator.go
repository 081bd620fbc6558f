package progression

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
)

// ValidateAnswer checks raw against the question's answer type.
// It returns a *domain.InvalidAnswerError describing the first violated rule.
func ValidateAnswer(q domain.QuestionSpec, raw string) error {
	var reason string

	switch q.Type {
	case domain.AnswerText:
		if strings.TrimSpace(raw) == "" {
			reason = "answer must not be blank"
		}
	case domain.AnswerNumber:
		reason = checkPositiveInteger(raw)
	case domain.AnswerChoice:
		if !q.HasChoice(raw) {
			reason = "answer must be one of: " + strings.Join(q.Choices, ", ")
		}
	default:
		// Unreachable for catalogs built with domain.NewCatalog.
		reason = fmt.Sprintf("unsupported answer type %q", q.Type)
	}

	if reason != "" {
		return &domain.InvalidAnswerError{Question: q, Reason: reason}
	}
	return nil
}

func checkPositiveInteger(raw string) string {
	if raw == "" {
		return "answer must be a number"
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "answer must be a whole number using digits only"
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "answer is too large"
	}
	if n <= 0 {
		return "answer must be greater than zero"
	}
	return ""
}
