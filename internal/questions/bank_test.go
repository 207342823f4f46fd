package questions

import (
	"strings"
	"testing"
)

func TestLevelForYears(t *testing.T) {
	t.Parallel()

	cases := map[int]Level{0: LevelJunior, 1: LevelJunior, 2: LevelMid, 4: LevelMid, 5: LevelSenior, 30: LevelSenior}
	for years, want := range cases {
		if got := LevelForYears(years); got != want {
			t.Fatalf("LevelForYears(%d) = %s, want %s", years, got, want)
		}
	}
}

func TestDefaultBankCoversLevels(t *testing.T) {
	t.Parallel()

	bank, err := DefaultBank()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tech := range []string{"python", "javascript", "java", "go", "react", "django", "mysql", "postgresql", "mongodb", "docker", "kubernetes", "aws"} {
		for _, level := range []Level{LevelJunior, LevelMid, LevelSenior} {
			if got := bank.For(tech, level); len(got) < 3 {
				t.Fatalf("expected at least 3 %s questions for %s, got %d", level, tech, len(got))
			}
		}
	}
}

func TestBankAliasesAndGeneric(t *testing.T) {
	t.Parallel()

	bank, err := DefaultBank()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bank.Canonical(" Golang ") != "go" || bank.Canonical("K8s") != "kubernetes" {
		t.Fatal("expected aliases to resolve")
	}

	if bank.For("ReactJS", LevelMid)[0] != bank.For("react", LevelMid)[0] {
		t.Fatal("expected alias to share questions")
	}

	generic := bank.For("Elixir", LevelSenior)
	if len(generic) != 3 || !strings.Contains(generic[0], "Elixir") || strings.Contains(generic[0], techPlaceholder) {
		t.Fatalf("unexpected generic questions %v", generic)
	}
}

func TestBankSelect(t *testing.T) {
	t.Parallel()

	bank, err := DefaultBank()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	general := bank.Select(nil, 3, LevelJunior)
	if len(general) != 3 || general[0].Text != bank.General[0] || general[0].Technology != "" {
		t.Fatalf("expected general questions for empty stack, got %v", general)
	}

	// Duplicated technologies collapse, so the bank runs out and general
	// questions fill the rest.
	mixed := bank.Select([]string{"go", "golang"}, 5, LevelJunior)
	if len(mixed) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(mixed))
	}
	seen := map[string]bool{}
	for _, q := range mixed[:3] {
		if seen[q.Text] {
			t.Fatalf("unexpected duplicate %q", q.Text)
		}
		seen[q.Text] = true
	}
	if mixed[3].Text != bank.General[0] {
		t.Fatalf("expected general question after exhausting the bank, got %q", mixed[3].Text)
	}

	if bank.Select([]string{"go"}, 0, LevelJunior) != nil {
		t.Fatal("expected nil for zero count")
	}
}

func TestParseBankValidation(t *testing.T) {
	t.Parallel()

	if _, err := ParseBank([]byte("technologies: {}\n")); err == nil {
		t.Fatal("expected error for bank without general questions")
	}
	if _, err := ParseBank([]byte(":\n  - [")); err == nil {
		t.Fatal("expected yaml error")
	}
}
