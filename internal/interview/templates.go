package interview

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// TemplateKind names one of the outbound message templates.
type TemplateKind string

const (
	TemplateGreeting     TemplateKind = "greeting"
	TemplateAskField     TemplateKind = "ask_field"
	TemplateAskTechnical TemplateKind = "ask_technical"
	TemplateClosing      TemplateKind = "closing"
	TemplateFarewell     TemplateKind = "farewell"
	TemplateApology      TemplateKind = "apology"
	TemplateConfirm      TemplateKind = "confirm_contact"
)

// ErrMissingTemplate means the renderer has no template for the requested kind.
var ErrMissingTemplate = errors.New("missing template")

// TemplateKinds lists every kind a complete renderer must provide.
func TemplateKinds() []TemplateKind {
	return []TemplateKind{
		TemplateGreeting,
		TemplateAskField,
		TemplateAskTechnical,
		TemplateClosing,
		TemplateFarewell,
		TemplateApology,
		TemplateConfirm,
	}
}

// TemplateData carries the values substituted into templates. Unused fields
// are ignored by a given kind.
type TemplateData struct {
	Name       string
	Field      string
	FieldLabel string
	Ack        string
	Hint       string
	Question   string
	Technology string
	Number     int
	Total      int
	Feedback   string
	Answer     string
}

var defaultTemplates = map[TemplateKind]string{
	TemplateGreeting: `Hello! I'm the screening assistant. I'll ask a few questions about you and your experience, then a couple of technical questions based on your tech stack. You can type "bye" at any time to finish. Shall we start?`,

	TemplateAskField: `{{with .Ack}}{{.}} {{end}}{{with .Hint}}{{.}} {{end}}
{{- if eq .Field "full_name"}}Could you please tell me your full name?
{{- else if eq .Field "email"}}What is your email address?
{{- else if eq .Field "phone"}}What is the best phone number to reach you?
{{- else if eq .Field "experience_years"}}How many years of professional experience do you have?
{{- else if eq .Field "desired_positions"}}Which position or positions are you interested in?
{{- else if eq .Field "location"}}Where are you currently located?
{{- else if eq .Field "tech_stack"}}Please list the technologies you work with: languages, frameworks, databases and tools.
{{- else}}Could you please share your {{.FieldLabel}}?{{end}}`,

	TemplateAskTechnical: `{{with .Feedback}}{{.}} {{end}}{{if eq .Number 1}}Now a few technical questions{{with .Name}}, {{.}}{{end}}. {{end}}Question {{.Number}} of {{.Total}}{{with .Technology}} ({{.}}){{end}}: {{.Question}}`,

	TemplateClosing: `{{with .Feedback}}{{.}} {{end}}Thank you{{with .Name}}, {{.}}{{end}}! That completes the screening. Our recruitment team will review your profile and answers and contact you within 2-3 business days. Is there anything else you would like to ask?`,

	TemplateFarewell: `{{with .Answer}}{{.}} {{end}}Thanks for your time{{with .Name}}, {{.}}{{end}}. Good luck, and have a great day!`,

	TemplateApology: `Sorry, something went wrong on our side. Could you please repeat your last message?`,

	TemplateConfirm: `{{with .Hint}}{{.}} {{end}}This {{.FieldLabel}} is already registered with us. Have you applied before? Please answer "yes" or "no".`,
}

// Renderer renders outbound messages from a closed set of templates.
type Renderer struct {
	templates map[TemplateKind]*template.Template
}

// NewRenderer returns a renderer with the built-in templates, replaced by
// overrides where given.
func NewRenderer(overrides map[TemplateKind]string) (*Renderer, error) {
	sources := make(map[TemplateKind]string, len(defaultTemplates))
	for kind, src := range defaultTemplates {
		sources[kind] = src
	}
	for kind, src := range overrides {
		if strings.TrimSpace(src) == "" {
			continue
		}
		sources[kind] = src
	}
	return ParseTemplates(sources)
}

// ParseTemplates builds a renderer from exactly the given sources.
func ParseTemplates(sources map[TemplateKind]string) (*Renderer, error) {
	r := &Renderer{templates: make(map[TemplateKind]*template.Template, len(sources))}
	for kind, src := range sources {
		tmpl, err := template.New(string(kind)).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", kind, err)
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

// Missing returns the kinds for which no template is configured.
func (r *Renderer) Missing() []TemplateKind {
	var missing []TemplateKind
	for _, kind := range TemplateKinds() {
		if _, ok := r.templates[kind]; !ok {
			missing = append(missing, kind)
		}
	}
	return missing
}

// Render substitutes data into the template of the given kind.
func (r *Renderer) Render(kind TemplateKind, data TemplateData) (string, error) {
	tmpl, ok := r.templates[kind]
	if !ok {
		return "", fmt.Errorf("%s: %w", kind, ErrMissingTemplate)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", kind, err)
	}
	return strings.TrimSpace(b.String()), nil
}
