package interview

import (
	"errors"
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		field   Field
		input   string
		want    Value
		wantErr error
	}{
		{
			name:  "email embedded in a sentence is lower-cased",
			field: FieldEmail,
			input: "My email is JOHN@Example.com",
			want:  TextValue("john@example.com"),
		},
		{
			name:  "email with trailing punctuation",
			field: FieldEmail,
			input: "reach me at ann.lee+jobs@mail.co.uk.",
			want:  TextValue("ann.lee+jobs@mail.co.uk"),
		},
		{
			name:    "email without at sign",
			field:   FieldEmail,
			input:   "john at example dot com",
			wantErr: ErrNoMatch,
		},
		{
			name:  "phone normalised to digits",
			field: FieldPhone,
			input: "+1 (555) 123-4567",
			want:  TextValue("15551234567"),
		},
		{
			name:  "phone inside text",
			field: FieldPhone,
			input: "you can call me on 555.123.4567 after 6pm",
			want:  TextValue("5551234567"),
		},
		{
			name:    "phone too short",
			field:   FieldPhone,
			input:   "12345",
			wantErr: ErrNoMatch,
		},
		{
			name:  "years from number",
			field: FieldExperienceYears,
			input: "5 years",
			want:  NumberValue(5),
		},
		{
			name:  "fractional years floored",
			field: FieldExperienceYears,
			input: "about 2.5",
			want:  NumberValue(2),
		},
		{
			name:  "spelled years",
			field: FieldExperienceYears,
			input: "Five years, mostly backend",
			want:  NumberValue(5),
		},
		{
			name:    "years out of range",
			field:   FieldExperienceYears,
			input:   "75",
			wantErr: ErrNoMatch,
		},
		{
			name:    "years missing",
			field:   FieldExperienceYears,
			input:   "quite a lot",
			wantErr: ErrNoMatch,
		},
		{
			name:  "name verbatim",
			field: FieldFullName,
			input: "  Ann Lee ",
			want:  TextValue("Ann Lee"),
		},
		{
			name:  "location verbatim",
			field: FieldLocation,
			input: "Berlin, Germany",
			want:  TextValue("Berlin, Germany"),
		},
		{
			name:  "positions verbatim",
			field: FieldDesiredPositions,
			input: "Backend engineer",
			want:  TextValue("Backend engineer"),
		},
		{
			name:  "stack split and deduplicated",
			field: FieldTechStack,
			input: "Python, react and Django; python & Docker",
			want:  SetValue([]string{"Python", "react", "Django", "Docker"}),
		},
		{
			name:  "stack keeps words containing and",
			field: FieldTechStack,
			input: "Pandas\nAndroid",
			want:  SetValue([]string{"Pandas", "Android"}),
		},
		{
			name:  "stack keeps leading dots",
			field: FieldTechStack,
			input: "C#, .NET and Go.",
			want:  SetValue([]string{"C#", ".NET", "Go"}),
		},
		{
			name:    "stack of separators only",
			field:   FieldTechStack,
			input:   ", ; and",
			wantErr: ErrEmpty,
		},
		{
			name:    "blank input",
			field:   FieldFullName,
			input:   "   \n",
			wantErr: ErrEmpty,
		},
		{
			name:    "blank email",
			field:   FieldEmail,
			input:   "",
			wantErr: ErrEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Extract(tt.field, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestExtractEmailIsAlwaysLowerCase(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"A@B.CO", "Mixed.Case@Domain.Org", "x@y.io"} {
		got, err := Extract(FieldEmail, input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		for _, r := range got.Text {
			if r >= 'A' && r <= 'Z' {
				t.Fatalf("expected lower-case email, got %q", got.Text)
			}
		}
	}
}

func TestLooksLikeQuestion(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"why do you need it?":      true,
		"What is this for":         true,
		"could you explain":        true,
		"John Smith":               false,
		"I have five years":        false,
		"  how long will it take ": true,
	}

	for input, want := range cases {
		if got := LooksLikeQuestion(input); got != want {
			t.Fatalf("LooksLikeQuestion(%q) = %v, want %v", input, got, want)
		}
	}
}
