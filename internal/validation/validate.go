// Package validation checks a FormState without touching any rendering.
package validation

import (
	"regexp"
	"strings"

	"github.com/spec-kit/ticket-generator/internal/domain"
)

const (
	MsgAvatarRequired   = "Please upload an avatar."
	MsgFullNameRequired = "Full name is required."
	MsgEmailInvalid     = "Please enter a valid email address."
	MsgGitHubRequired   = "GitHub username is required."
)

// A shape check only; it does not attempt RFC 5322.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate runs every field check, so several errors can surface at once.
func Validate(state domain.FormState) domain.ValidationResult {
	return domain.ValidationResult{Fields: []domain.FieldResult{
		check(domain.FieldAvatar, state.HasAvatar(), MsgAvatarRequired),
		check(domain.FieldFullName, FullName(state.FullName), MsgFullNameRequired),
		check(domain.FieldEmail, Email(state.Email), MsgEmailInvalid),
		check(domain.FieldGitHub, GitHub(state.GitHub), MsgGitHubRequired),
	}}
}

// FullName reports whether name has any non-space content.
func FullName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// Email reports whether email has the local@domain.tld shape.
func Email(email string) bool {
	return emailPattern.MatchString(email)
}

// GitHub reports whether handle has any non-space content.
func GitHub(handle string) bool {
	return strings.TrimSpace(handle) != ""
}

func check(field domain.Field, ok bool, message string) domain.FieldResult {
	if ok {
		return domain.FieldResult{Field: field, Valid: true}
	}
	return domain.FieldResult{Field: field, Valid: false, Message: message}
}
