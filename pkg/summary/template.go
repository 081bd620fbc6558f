package summary

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/template"
)

// DefaultTemplate is the facilitator message used when no template is configured.
// value returns the answer or its fallback; answer returns the raw answer or "".
const DefaultTemplate = `Nice to meet you, {{value "name"}}! You are {{value "age"}} years old, identify as {{value "gender"}}, and enjoy {{value "hobby"}}.
{{- with answer "scenery"}} You would rather be at the {{lower .}}.{{end}}
{{- with answer "rhythm"}} You are a {{lower .}}.{{end}}
{{- range extras}} {{.Prompt}} {{.Answer}}.{{end}}`

// defaultFallbacks are used for well-known keys the catalog gives no fallback for.
var defaultFallbacks = map[string]string{
	"name":   "there",
	"age":    "unknown",
	"gender": "unspecified",
	"hobby":  "none specified",
}

// knownKeys are referenced directly by DefaultTemplate; other answered keys are listed as extras.
var knownKeys = []string{"name", "age", "gender", "hobby", "scenery", "rhythm"}

const unknownFallback = "unknown"

// TemplateBuilder renders summaries from a text/template.
type TemplateBuilder struct {
	source string
}

// TemplateOption configures a TemplateBuilder.
type TemplateOption func(*TemplateBuilder)

// WithTemplate replaces DefaultTemplate.
func WithTemplate(text string) TemplateOption {
	return func(b *TemplateBuilder) {
		b.source = text
	}
}

// NewTemplateBuilder creates a builder using DefaultTemplate unless overridden.
// Use ParseTemplate to validate custom templates at startup.
func NewTemplateBuilder(opts ...TemplateOption) *TemplateBuilder {
	b := &TemplateBuilder{source: DefaultTemplate}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ParseTemplate validates text as a summary template.
func ParseTemplate(text string) error {
	_, err := parse(text, Request{})
	return err
}

// Build renders the template. It never fails: a template that cannot be
// executed degrades to a plain listing of the answers.
func (b *TemplateBuilder) Build(_ context.Context, req Request) Summary {
	return Summary{Text: b.Render(req)}
}

// Render returns the deterministic summary text for req.
func (b *TemplateBuilder) Render(req Request) string {
	tmpl, err := parse(b.source, req)
	if err == nil {
		var sb strings.Builder
		if err = tmpl.Execute(&sb, req.Answers); err == nil {
			if text := strings.TrimSpace(sb.String()); text != "" {
				return text
			}
		}
	}
	return plainListing(req)
}

type extra struct {
	Key    string
	Prompt string
	Answer string
}

func parse(text string, req Request) (*template.Template, error) {
	funcs := template.FuncMap{
		"value":  func(key string) string { return valueOf(req, key) },
		"answer": func(key string) string { return req.Answers[key] },
		"lower":  strings.ToLower,
		"extras": func() []extra { return extras(req) },
	}
	tmpl, err := template.New("summary").Option("missingkey=zero").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse summary template: %w", err)
	}
	return tmpl, nil
}

func valueOf(req Request, key string) string {
	if v, ok := req.Answers[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	if req.Catalog != nil {
		if q, ok := req.Catalog.Lookup(key); ok && q.Fallback != "" {
			return q.Fallback
		}
	}
	if fb, ok := defaultFallbacks[key]; ok {
		return fb
	}
	return unknownFallback
}

func extras(req Request) []extra {
	if req.Catalog == nil {
		return nil
	}
	var out []extra
	for _, q := range req.Catalog.Questions() {
		if slices.Contains(knownKeys, q.Key) {
			continue
		}
		answer, ok := req.Answers[q.Key]
		if !ok {
			continue
		}
		out = append(out, extra{Key: q.Key, Prompt: q.Prompt, Answer: answer})
	}
	return out
}

func plainListing(req Request) string {
	var keys []string
	if req.Catalog != nil {
		keys = req.Catalog.Keys()
	} else {
		for k := range req.Answers {
			keys = append(keys, k)
		}
		slices.Sort(keys)
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, valueOf(req, k)))
	}
	return "Thanks for sharing! " + strings.Join(parts, "; ") + "."
}
