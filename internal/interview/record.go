package interview

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field identifies a piece of candidate information collected during screening.
type Field string

const (
	FieldFullName         Field = "full_name"
	FieldEmail            Field = "email"
	FieldPhone            Field = "phone"
	FieldExperienceYears  Field = "experience_years"
	FieldDesiredPositions Field = "desired_positions"
	FieldLocation         Field = "location"
	FieldTechStack        Field = "tech_stack"
)

var requiredFields = []Field{
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldExperienceYears,
	FieldDesiredPositions,
	FieldLocation,
	FieldTechStack,
}

// RequiredFields returns the fields in the order they are collected.
func RequiredFields() []Field {
	out := make([]Field, len(requiredFields))
	copy(out, requiredFields)
	return out
}

// NextField returns the field collected after f. The second result is false
// when f is the last one.
func NextField(f Field) (Field, bool) {
	for i, candidate := range requiredFields {
		if candidate == f && i+1 < len(requiredFields) {
			return requiredFields[i+1], true
		}
	}
	return "", false
}

// Label returns a human readable name of the field.
func (f Field) Label() string {
	switch f {
	case FieldFullName:
		return "full name"
	case FieldEmail:
		return "email address"
	case FieldPhone:
		return "phone number"
	case FieldExperienceYears:
		return "years of experience"
	case FieldDesiredPositions:
		return "desired position"
	case FieldLocation:
		return "location"
	case FieldTechStack:
		return "tech stack"
	default:
		return strings.ReplaceAll(string(f), "_", " ")
	}
}

type ValueKind string

const (
	KindText    ValueKind = "text"
	KindNumber  ValueKind = "number"
	KindSet     ValueKind = "set"
	KindUnknown ValueKind = "unknown"
)

// Value is an extracted profile value.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number int       `json:"number,omitempty"`
	Items  []string  `json:"items,omitempty"`
}

func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

func NumberValue(n int) Value { return Value{Kind: KindNumber, Number: n} }

func SetValue(items []string) Value { return Value{Kind: KindSet, Items: items} }

// UnknownValue marks a field the candidate never answered in a usable way.
func UnknownValue() Value { return Value{Kind: KindUnknown} }

func (v Value) IsUnknown() bool { return v.Kind == KindUnknown }

func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.Itoa(v.Number)
	case KindSet:
		return strings.Join(v.Items, ", ")
	default:
		return "unknown"
	}
}

func (v Value) clone() Value {
	if v.Items != nil {
		items := make([]string, len(v.Items))
		copy(items, v.Items)
		v.Items = items
	}
	return v
}

// Pending holds an accepted contact value until the candidate confirms it
// does not belong to an earlier application.
type Pending struct {
	Field Field `json:"field"`
	Value Value `json:"value"`
}

// Profile maps collected fields to their values. A field is absent until it
// has been extracted or given up on.
type Profile map[Field]Value

func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v.clone()
	}
	return out
}

func (p Profile) Has(f Field) bool {
	_, ok := p[f]
	return ok
}

// Collected counts the required fields present in the profile.
func (p Profile) Collected() int {
	n := 0
	for _, f := range requiredFields {
		if p.Has(f) {
			n++
		}
	}
	return n
}

// Completion returns the collected share of required fields in [0, 1].
func (p Profile) Completion() float64 {
	return float64(p.Collected()) / float64(len(requiredFields))
}

// Years returns the experience in years when it was collected.
func (p Profile) Years() (int, bool) {
	v, ok := p[FieldExperienceYears]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Technologies returns the declared tech stack, nil when unknown.
func (p Profile) Technologies() []string {
	v, ok := p[FieldTechStack]
	if !ok || v.Kind != KindSet {
		return nil
	}
	return v.clone().Items
}

// FirstName returns the first word of the candidate's name.
func (p Profile) FirstName() string {
	v, ok := p[FieldFullName]
	if !ok || v.Kind != KindText {
		return ""
	}
	parts := strings.Fields(v.Text)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

type StageKind string

const (
	StageGreeting   StageKind = "greeting"
	StageCollecting StageKind = "collecting"
	StageTechnical  StageKind = "technical"
	StageClosing    StageKind = "closing"
	StageEnded      StageKind = "ended"
)

// Stage is the current position of a conversation. Field is set only for
// collecting stages and Index only for technical ones.
type Stage struct {
	Kind  StageKind `json:"kind"`
	Field Field     `json:"field,omitempty"`
	Index int       `json:"index,omitempty"`
}

func Greeting() Stage { return Stage{Kind: StageGreeting} }
func Collecting(f Field) Stage { return Stage{Kind: StageCollecting, Field: f} }
func Technical(index int) Stage { return Stage{Kind: StageTechnical, Index: index} }
func Closing() Stage { return Stage{Kind: StageClosing} }
func Ended() Stage { return Stage{Kind: StageEnded} }
func (s Stage) Is(k StageKind) bool { return s.Kind == k }

// Tag returns a compact stage identifier such as "collecting:email" or "technical:2".
func (s Stage) Tag() string {
	switch s.Kind {
	case StageCollecting:
		return fmt.Sprintf("%s:%s", s.Kind, s.Field)
	case StageTechnical:
		return fmt.Sprintf("%s:%d", s.Kind, s.Index)
	default:
		return string(s.Kind)
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Question is a technical question asked at the end of the screening.
type Question struct {
	Technology string `json:"technology,omitempty"`
	Text       string `json:"text"`
}

type Answer struct {
	Index      int       `json:"index"`
	Technology string    `json:"technology,omitempty"`
	Question   string    `json:"question"`
	Text       string    `json:"text"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Record is the persisted state of one screening session.
type Record struct {
	SessionID       string        `json:"session_id"`
	Profile         Profile       `json:"profile"`
	Transcript      []Message     `json:"transcript"`
	Stage           Stage         `json:"stage"`
	Questions       []Question    `json:"questions,omitempty"`
	QuestionsSource string        `json:"questions_source,omitempty"`
	Answers         []Answer      `json:"answers,omitempty"`
	Retries         map[Field]int `json:"retries,omitempty"`
	Pending         *Pending      `json:"pending,omitempty"`
	EndReason       string        `json:"end_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func NewRecord(id string, now time.Time) *Record {
	return &Record{
		SessionID: id,
		Profile:   Profile{},
		Stage:     Greeting(),
		Retries:   map[Field]int{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the transcript.
func (r *Record) Append(role Role, text string, at time.Time) {
	r.Transcript = append(r.Transcript, Message{Role: role, Text: text, Timestamp: at})
	r.UpdatedAt = at
}

// Clone returns a deep copy that shares no mutable state with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	out := *r
	out.Profile = r.Profile.Clone()

	if r.Transcript != nil {
		out.Transcript = make([]Message, len(r.Transcript))
		copy(out.Transcript, r.Transcript)
	}
	if r.Questions != nil {
		out.Questions = make([]Question, len(r.Questions))
		copy(out.Questions, r.Questions)
	}
	if r.Answers != nil {
		out.Answers = make([]Answer, len(r.Answers))
		copy(out.Answers, r.Answers)
	}
	if r.Pending != nil {
		pending := Pending{Field: r.Pending.Field, Value: r.Pending.Value.clone()}
		out.Pending = &pending
	}
	if r.Retries != nil {
		out.Retries = make(map[Field]int, len(r.Retries))
		for k, v := range r.Retries {
			out.Retries[k] = v
		}
	}

	return &out
}
