package screening

import (
	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/logger"
)

// Sanitize returns a copy of rec with contact details masked in the profile
// and in candidate messages.
func Sanitize(rec *interview.Record) *interview.Record {
	out := rec.Clone()
	if out == nil {
		return nil
	}

	for field, v := range out.Profile {
		out.Profile[field] = maskContact(field, v)
	}
	if out.Pending != nil {
		out.Pending.Value = maskContact(out.Pending.Field, out.Pending.Value)
	}

	for i, msg := range out.Transcript {
		if msg.Role == interview.RoleUser {
			out.Transcript[i].Text = logger.MaskText(msg.Text)
		}
	}
	return out
}

func maskContact(field interview.Field, v interview.Value) interview.Value {
	if v.Kind != interview.KindText {
		return v
	}
	switch field {
	case interview.FieldEmail:
		return interview.TextValue(logger.MaskEmail(v.Text))
	case interview.FieldPhone:
		return interview.TextValue(logger.MaskPhone(v.Text))
	default:
		return v
	}
}
