package domain

// Field identifies one of the validated form inputs.
type Field string

const (
	FieldAvatar   Field = "avatar"
	FieldFullName Field = "fullName"
	FieldEmail    Field = "email"
	FieldGitHub   Field = "github"
)

// Fields lists the validated inputs in display order.
var Fields = []Field{FieldAvatar, FieldFullName, FieldEmail, FieldGitHub}

// FormState is the transient input owned by a visitor session.
type FormState struct {
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	GitHub   string      `json:"github"`
	Avatar   *AvatarFile `json:"avatar,omitempty"`
}

// HasAvatar reports whether an accepted avatar is attached.
func (f FormState) HasAvatar() bool {
	return f.Avatar != nil && len(f.Avatar.Data) > 0
}

// FieldResult is the verdict for a single field.
type FieldResult struct {
	Field   Field  `json:"field"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidationResult holds one verdict per field.
type ValidationResult struct {
	Fields []FieldResult `json:"fields"`
}

// Valid is the logical AND of every field verdict. An empty result is not valid.
func (r ValidationResult) Valid() bool {
	if len(r.Fields) == 0 {
		return false
	}
	for _, f := range r.Fields {
		if !f.Valid {
			return false
		}
	}
	return true
}

// For returns the verdict recorded for field.
func (r ValidationResult) For(field Field) (FieldResult, bool) {
	for _, f := range r.Fields {
		if f.Field == field {
			return f, true
		}
	}
	return FieldResult{}, false
}

// Messages maps failing fields to their messages.
func (r ValidationResult) Messages() map[string]any {
	out := make(map[string]any)
	for _, f := range r.Fields {
		if !f.Valid {
			out[string(f.Field)] = f.Message
		}
	}
	return out
}
