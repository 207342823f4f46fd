package screening

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spigell/hh-screener/internal/interview"
)

// keywordMatcher finds end-of-session keywords as whole words, ignoring case.
type keywordMatcher struct {
	re *regexp.Regexp
}

func newKeywordMatcher(keywords []string) *keywordMatcher {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(k)))
	}
	if len(quoted) == 0 {
		return &keywordMatcher{}
	}
	return &keywordMatcher{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

func (m *keywordMatcher) match(text string) bool {
	return m.re != nil && m.re.MatchString(text)
}

// acknowledge returns the short reaction to an accepted field.
func acknowledge(field interview.Field, profile interview.Profile) string {
	switch field {
	case interview.FieldFullName:
		if name := profile.FirstName(); name != "" {
			return fmt.Sprintf("Nice to meet you, %s!", name)
		}
		return "Nice to meet you!"
	case interview.FieldTechStack:
		return "Thanks for sharing your tech stack."
	default:
		return "Thank you!"
	}
}

// hint explains why an answer was not accepted.
func hint(field interview.Field, err error) string {
	if errors.Is(err, interview.ErrEmpty) {
		return "I didn't catch that."
	}

	switch field {
	case interview.FieldEmail:
		return "That doesn't look like a valid email address (for example, name@example.com)."
	case interview.FieldPhone:
		return "Please enter a phone number with 10 to 15 digits."
	case interview.FieldExperienceYears:
		return "Please give your experience as a number of years between 0 and 50."
	default:
		return "I couldn't understand that."
	}
}

// topic is a canned answer picked when text contains any of words.
type topic struct {
	words  []string
	answer string
}

var questionTopics = []topic{
	{
		words:  []string{"how long", "time", "minutes"},
		answer: "This process typically takes 10-15 minutes.",
	},
	{
		words:  []string{"why", "purpose", "reason"},
		answer: "We're collecting this information for our initial screening to match you with suitable opportunities.",
	},
	{
		words:  []string{"what happens", "next", "after"},
		answer: "After collecting your information, I'll ask some technical questions, then our team will review everything.",
	},
	{
		words:  []string{"safe", "secure", "privacy"},
		answer: "Your information is securely stored and only used for recruitment purposes.",
	},
}

const defaultQuestionReply = "That's a good question! I'll be happy to discuss more details after we collect the basic information."

// questionReply answers a question asked while a field is being collected.
func questionReply(text string) string {
	if answer := matchTopic(questionTopics, text); answer != "" {
		return answer
	}
	return defaultQuestionReply
}

type answerKind int

const (
	answerOther answerKind = iota
	answerYes
	answerNo
)

const alreadyApplied = "Thank you for confirming. Since you've already applied, our team has your information on file. " +
	"If you'd like to update your information or apply for a different position, please contact our team directly."

// yesNo reads a yes or no from the first word of text.
func yesNo(text string) answerKind {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return answerOther
	}

	switch strings.Trim(words[0], ".,!?;:\"'") {
	case "yes", "y", "yeah", "yep", "true", "correct":
		return answerYes
	case "no", "n", "nope", "false", "incorrect":
		return answerNo
	default:
		return answerOther
	}
}

// feedback reacts to a technical answer by its length.
func feedback(answer string) string {
	switch words := len(strings.Fields(answer)); {
	case words > 30:
		return "Thank you for the detailed explanation."
	case words > 10:
		return "I appreciate that response."
	default:
		return "Thank you."
	}
}

var closingTopics = []topic{
	{
		words:  []string{"when", "how long", "timeline"},
		answer: "Typically, our team reviews applications within 2-3 business days. If there's a good match, we'll reach out for the next steps.",
	},
	{
		words:  []string{"what happens", "next step", "process"},
		answer: "Your information goes to our technical team for review. If selected, you'll hear from us about a more detailed technical interview.",
	},
	{
		words:  []string{"company", "culture"},
		answer: "We work with various tech companies to find the right fit for candidates. Each company has its own culture and requirements, which we'll discuss if there's a match.",
	},
}

// closingAnswer returns a canned reply to a question asked after the
// screening, or an empty string.
func closingAnswer(text string) string {
	return matchTopic(closingTopics, text)
}

func matchTopic(topics []topic, text string) string {
	lower := strings.ToLower(text)
	for _, t := range topics {
		for _, w := range t.words {
			if strings.Contains(lower, w) {
				return t.answer
			}
		}
	}
	return ""
}
