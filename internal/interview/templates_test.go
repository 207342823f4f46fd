package interview

import (
	"errors"
	"strings"
	"testing"
)

func TestRendererRendersEveryKind(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing := r.Missing(); len(missing) != 0 {
		t.Fatalf("expected complete renderer, missing %v", missing)
	}

	tests := []struct {
		name     string
		kind     TemplateKind
		data     TemplateData
		contains []string
	}{
		{
			name:     "greeting",
			kind:     TemplateGreeting,
			contains: []string{"Hello!", "bye"},
		},
		{
			name:     "ask field with acknowledgement",
			kind:     TemplateAskField,
			data:     TemplateData{Field: string(FieldEmail), FieldLabel: FieldEmail.Label(), Ack: "Nice to meet you, Ann!"},
			contains: []string{"Nice to meet you, Ann! What is your email address?"},
		},
		{
			name:     "ask field with hint",
			kind:     TemplateAskField,
			data:     TemplateData{Field: string(FieldPhone), FieldLabel: FieldPhone.Label(), Hint: "That doesn't look like a phone number."},
			contains: []string{"That doesn't look like a phone number. What is the best phone number"},
		},
		{
			name:     "ask unknown field falls back to label",
			kind:     TemplateAskField,
			data:     TemplateData{Field: "github", FieldLabel: "GitHub profile"},
			contains: []string{"Could you please share your GitHub profile?"},
		},
		{
			name: "first technical question",
			kind: TemplateAskTechnical,
			data: TemplateData{Name: "Ann", Question: "What is a goroutine?", Technology: "go", Number: 1, Total: 4},
			contains: []string{
				"Now a few technical questions, Ann.",
				"Question 1 of 4 (go): What is a goroutine?",
			},
		},
		{
			name:     "later technical question with feedback",
			kind:     TemplateAskTechnical,
			data:     TemplateData{Question: "Explain closures.", Number: 2, Total: 4, Feedback: "Thank you."},
			contains: []string{"Thank you. Question 2 of 4: Explain closures."},
		},
		{
			name:     "closing",
			kind:     TemplateClosing,
			data:     TemplateData{Name: "Ann"},
			contains: []string{"Thank you, Ann!", "2-3 business days"},
		},
		{
			name:     "farewell",
			kind:     TemplateFarewell,
			data:     TemplateData{Name: "Ann"},
			contains: []string{"Thanks for your time, Ann."},
		},
		{
			name:     "apology",
			kind:     TemplateApology,
			contains: []string{"Sorry"},
		},
		{
			name:     "confirm contact",
			kind:     TemplateConfirm,
			data:     TemplateData{FieldLabel: FieldEmail.Label(), Hint: "Please answer yes or no."},
			contains: []string{"Please answer yes or no. This email address is already registered", "Have you applied before?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Render(tt.kind, tt.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Fatalf("expected %q to contain %q", got, want)
				}
			}
		})
	}
}

func TestRendererMissingTemplate(t *testing.T) {
	t.Parallel()

	r, err := ParseTemplates(map[TemplateKind]string{TemplateGreeting: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := r.Render(TemplateClosing, TemplateData{}); !errors.Is(err, ErrMissingTemplate) {
		t.Fatalf("expected ErrMissingTemplate, got %v", err)
	}

	if len(r.Missing()) != len(TemplateKinds())-1 {
		t.Fatalf("unexpected missing kinds: %v", r.Missing())
	}
}

func TestNewRendererOverrides(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(map[TemplateKind]string{
		TemplateGreeting: "Welcome to Acme screening.",
		TemplateClosing:  "   ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := r.Render(TemplateGreeting, TemplateData{})
	if err != nil || got != "Welcome to Acme screening." {
		t.Fatalf("expected override, got %q (%v)", got, err)
	}

	got, err = r.Render(TemplateClosing, TemplateData{})
	if err != nil || !strings.Contains(got, "business days") {
		t.Fatalf("expected default closing for blank override, got %q (%v)", got, err)
	}

	if _, err := NewRenderer(map[TemplateKind]string{TemplateGreeting: "{{.Broken"}); err == nil {
		t.Fatal("expected parse error")
	}
}
