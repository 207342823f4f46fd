package questions

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/spigell/hh-screener/internal/ai"
	"github.com/spigell/hh-screener/internal/interview"

	"github.com/mitchellh/mapstructure"
)

var listMarker = regexp.MustCompile(`^\s*(?:(?:Q(?:uestion)?\s*)?\d+\s*[.):-]|[-*•])\s*`)

type questionItem struct {
	Question   string `mapstructure:"question"`
	Text       string `mapstructure:"text"`
	Technology string `mapstructure:"technology"`
}

type questionsPayload struct {
	Questions []any `mapstructure:"questions"`
}

// parseQuestions accepts a JSON array (of strings or objects), an object with
// a "questions" key, or a numbered / bulleted / newline separated list.
func parseQuestions(raw string) ([]interview.Question, error) {
	cleaned := extractJSON(raw)

	if strings.HasPrefix(cleaned, "[") || strings.HasPrefix(cleaned, "{") {
		var data any
		if err := json.Unmarshal([]byte(cleaned), &data); err == nil {
			out, err := fromJSON(data)
			if err != nil {
				return nil, err
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("no questions in json response: %w", ai.ErrMalformedResponse)
			}
			return out, nil
		}
	}

	out := fromLines(cleaned)
	if len(out) == 0 {
		return nil, fmt.Errorf("no questions in response: %w", ai.ErrMalformedResponse)
	}
	return out, nil
}

func fromJSON(data any) ([]interview.Question, error) {
	var items []any
	switch val := data.(type) {
	case []any:
		items = val
	case map[string]any:
		var payload questionsPayload
		if err := mapstructure.Decode(val, &payload); err != nil {
			return nil, fmt.Errorf("decoding questions payload: %v: %w", err, ai.ErrMalformedResponse)
		}
		items = payload.Questions
	default:
		return nil, fmt.Errorf("unexpected json type %T: %w", data, ai.ErrMalformedResponse)
	}

	out := make([]interview.Question, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case string:
			if text := strings.TrimSpace(val); text != "" {
				out = append(out, interview.Question{Text: text})
			}
		case map[string]any:
			var q questionItem
			if err := mapstructure.WeakDecode(val, &q); err != nil {
				continue
			}
			text := strings.TrimSpace(q.Question)
			if text == "" {
				text = strings.TrimSpace(q.Text)
			}
			if text != "" {
				out = append(out, interview.Question{Technology: strings.TrimSpace(q.Technology), Text: text})
			}
		}
	}
	return out, nil
}

func fromLines(text string) []interview.Question {
	var out []interview.Question
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "*_` ")
		if line == "" {
			continue
		}

		marked := listMarker.MatchString(line)
		line = strings.Trim(listMarker.ReplaceAllString(line, ""), "*_` ")
		if line == "" {
			continue
		}
		// Headers such as "Here are your questions:" are not questions.
		if !marked && strings.HasSuffix(line, ":") {
			continue
		}
		out = append(out, interview.Question{Text: line})
	}
	return out
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
