package questions

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/hh-screener/internal/interview"

	"gopkg.in/yaml.v3"
)

// Level is a seniority tier used to pick questions.
type Level string

const (
	LevelJunior Level = "junior"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
)

const techPlaceholder = "{{TECH}}"

// LevelForYears maps years of experience to a level: junior below 2 years,
// mid below 5, senior otherwise.
func LevelForYears(years int) Level {
	switch {
	case years < 2:
		return LevelJunior
	case years < 5:
		return LevelMid
	default:
		return LevelSenior
	}
}

// ErrNoGeneralQuestions means a bank cannot fill a batch once its
// technology questions run out.
var ErrNoGeneralQuestions = errors.New("question bank has no general questions")

//go:embed bank.yaml
var defaultBankYAML []byte

// Bank is the static question set used when text generation is unavailable.
type Bank struct {
	Aliases      map[string]string             `yaml:"aliases"`
	Technologies map[string]map[Level][]string `yaml:"technologies"`
	Generic      map[Level][]string            `yaml:"generic"`
	General      []string                      `yaml:"general"`
}

// DefaultBank parses the embedded question bank.
func DefaultBank() (*Bank, error) {
	return ParseBank(defaultBankYAML)
}

// ParseBank reads a bank from YAML.
func ParseBank(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parsing question bank: %w", err)
	}

	if err := bank.validate(); err != nil {
		return nil, err
	}

	normalized := make(map[string]map[Level][]string, len(bank.Technologies))
	for tech, levels := range bank.Technologies {
		normalized[normalizeKey(tech)] = levels
	}
	bank.Technologies = normalized

	aliases := make(map[string]string, len(bank.Aliases))
	for from, to := range bank.Aliases {
		aliases[normalizeKey(from)] = normalizeKey(to)
	}
	bank.Aliases = aliases

	return &bank, nil
}

func (b *Bank) validate() error {
	if b == nil {
		return errors.New("question bank is required")
	}
	if len(b.General) == 0 {
		return ErrNoGeneralQuestions
	}
	for _, level := range []Level{LevelJunior, LevelMid, LevelSenior} {
		if len(b.Generic[level]) == 0 {
			return fmt.Errorf("question bank has no generic %s questions", level)
		}
	}
	return nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Canonical resolves aliases such as "golang" to the bank key.
func (b *Bank) Canonical(tech string) string {
	key := normalizeKey(tech)
	if alias, ok := b.Aliases[key]; ok {
		return alias
	}
	return key
}

// For returns the ordered questions for a technology and level. Unknown
// technologies get the generic questions with the name substituted.
func (b *Bank) For(tech string, level Level) []string {
	if levels, ok := b.Technologies[b.Canonical(tech)]; ok {
		if qs := levels[level]; len(qs) > 0 {
			return qs
		}
		if qs := levels[LevelJunior]; len(qs) > 0 {
			return qs
		}
	}

	generic := b.Generic[level]
	if len(generic) == 0 {
		generic = b.Generic[LevelJunior]
	}

	name := strings.TrimSpace(tech)
	out := make([]string, len(generic))
	for i, q := range generic {
		out[i] = strings.ReplaceAll(q, techPlaceholder, name)
	}
	return out
}

// Select picks count questions deterministically by round-robin over techs:
// the first question of each technology, then the second of each, and so on.
// Once the bank is exhausted the general questions fill the remaining slots.
func (b *Bank) Select(techs []string, count int, level Level) []interview.Question {
	if count <= 0 {
		return nil
	}

	perTech := make([][]string, len(techs))
	rounds := 0
	for i, tech := range techs {
		perTech[i] = b.For(tech, level)
		if len(perTech[i]) > rounds {
			rounds = len(perTech[i])
		}
	}

	out := make([]interview.Question, 0, count)
	seen := make(map[string]struct{}, count)

	for round := 0; round < rounds && len(out) < count; round++ {
		for i, list := range perTech {
			if len(out) == count {
				break
			}
			if round >= len(list) {
				continue
			}
			if _, dup := seen[list[round]]; dup {
				continue
			}
			seen[list[round]] = struct{}{}
			out = append(out, interview.Question{Technology: techs[i], Text: list[round]})
		}
	}

	for i := 0; len(out) < count; i++ {
		out = append(out, interview.Question{Text: b.General[i%len(b.General)]})
	}

	return out
}
