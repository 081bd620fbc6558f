package domain

import (
	"fmt"
	"strings"
)

// Catalog is the fixed, ordered list of questions driving a conversation.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	questions []QuestionSpec
	index     map[string]int
}

// NewCatalog validates the questions and builds a Catalog.
// It returns a *CatalogError for empty catalogs, duplicate or empty keys,
// blank prompts, unknown answer types and inconsistent choice sets.
func NewCatalog(questions ...QuestionSpec) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, &CatalogError{Index: -1, Reason: "catalog has no questions"}
	}

	c := &Catalog{
		questions: make([]QuestionSpec, 0, len(questions)),
		index:     make(map[string]int, len(questions)),
	}

	for i, q := range questions {
		key := strings.TrimSpace(q.Key)
		switch {
		case key == "":
			return nil, &CatalogError{Index: i, Reason: "key is required"}
		case key != q.Key:
			return nil, &CatalogError{Index: i, Key: q.Key, Reason: "key has surrounding whitespace"}
		case strings.TrimSpace(q.Prompt) == "":
			return nil, &CatalogError{Index: i, Key: key, Reason: "prompt is required"}
		case !q.Type.Valid():
			return nil, &CatalogError{Index: i, Key: key, Reason: fmt.Sprintf("unknown answer type %q", q.Type)}
		case q.Type == AnswerChoice && len(q.Choices) == 0:
			return nil, &CatalogError{Index: i, Key: key, Reason: "choice question needs at least one choice"}
		case q.Type != AnswerChoice && len(q.Choices) > 0:
			return nil, &CatalogError{Index: i, Key: key, Reason: "choices are only allowed on choice questions"}
		}
		if prev, dup := c.index[key]; dup {
			return nil, &CatalogError{Index: i, Key: key, Reason: fmt.Sprintf("duplicate key (first used by question %d)", prev)}
		}

		c.index[key] = i
		c.questions = append(c.questions, q.clone())
	}

	return c, nil
}

// MustCatalog is like NewCatalog but panics on error.
// Intended for package-level catalogs built from literals.
func MustCatalog(questions ...QuestionSpec) *Catalog {
	c, err := NewCatalog(questions...)
	if err != nil {
		panic(err)
	}
	return c
}

// QuestionAt returns the question for the given stage.
// ok is false once stage is outside the catalog, meaning the conversation is complete.
func (c *Catalog) QuestionAt(stage int) (QuestionSpec, bool) {
	if stage < 0 || stage >= len(c.questions) {
		return QuestionSpec{}, false
	}
	return c.questions[stage].clone(), true
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Lookup returns the question with the given key.
func (c *Catalog) Lookup(key string) (QuestionSpec, bool) {
	i, ok := c.index[key]
	if !ok {
		return QuestionSpec{}, false
	}
	return c.questions[i].clone(), true
}

// Keys returns the answer keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.questions))
	for i, q := range c.questions {
		keys[i] = q.Key
	}
	return keys
}

// Questions returns a copy of the ordered questions.
func (c *Catalog) Questions() []QuestionSpec {
	out := make([]QuestionSpec, len(c.questions))
	for i, q := range c.questions {
		out[i] = q.clone()
	}
	return out
}

// DefaultCatalog returns the built-in profile questions.
func DefaultCatalog() *Catalog {
	return MustCatalog(
		QuestionSpec{Prompt: "Welcome! What is your name?", Type: AnswerText, Key: "name", Fallback: "there"},
		QuestionSpec{Prompt: "How old are you?", Type: AnswerNumber, Key: "age", Fallback: "unknown"},
		QuestionSpec{Prompt: "What is your gender?", Type: AnswerText, Key: "gender", Fallback: "unspecified"},
		QuestionSpec{Prompt: "What do you love to do in your free time? Any hobbies or passions that make your heart sing?", Type: AnswerText, Key: "hobby", Fallback: "none specified"},
		QuestionSpec{Prompt: "Do you prefer the mountains or the beach?", Type: AnswerChoice, Key: "scenery", Choices: []string{"Mountains", "Beach"}},
		QuestionSpec{Prompt: "Are you more of a morning person or a night owl?", Type: AnswerChoice, Key: "rhythm", Choices: []string{"Morning person", "Night owl"}},
	)
}
