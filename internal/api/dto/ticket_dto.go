package dto

import (
	"time"

	"github.com/spec-kit/ticket-generator/internal/domain"
)

// SubmitTicketRequest mirrors the text fields of the multipart form.
type SubmitTicketRequest struct {
	FullName string `form:"fullName" json:"full_name"`
	Email    string `form:"email" json:"email"`
	GitHub   string `form:"github" json:"github"`
	Source   string `form:"source" json:"source"`
}

// TicketResponse is the public view of an issued ticket.
type TicketResponse struct {
	ID            string    `json:"id"`
	TicketNumber  int       `json:"ticket_number"`
	DisplayName   string    `json:"display_name"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	GitHub        string    `json:"github"`
	AvatarDataURL string    `json:"avatar_data_url"`
	AvatarDigest  string    `json:"avatar_digest"`
	IssuedAt      time.Time `json:"issued_at"`
}

// AvatarStateResponse describes the avatar slot after an upload action.
type AvatarStateResponse struct {
	Accepted   bool   `json:"accepted"`
	Generation uint64 `json:"generation"`
	FileName   string `json:"file_name,omitempty"`
	MIMEType   string `json:"mime_type,omitempty"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewTicketResponse maps a TicketView.
func NewTicketResponse(t *domain.TicketView) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		TicketNumber:  t.Number,
		DisplayName:   t.DisplayName,
		FullName:      t.FullName,
		Email:         t.Email,
		GitHub:        t.GitHub,
		AvatarDataURL: t.AvatarDataURL,
		AvatarDigest:  t.AvatarDigest,
		IssuedAt:      t.IssuedAt,
	}
}

// NewAvatarStateResponse maps the avatar part of a session.
func NewAvatarStateResponse(sess *domain.Session) AvatarStateResponse {
	resp := AvatarStateResponse{Generation: sess.Generation, Error: sess.UploadError}
	if sess.Form.HasAvatar() {
		resp.Accepted = true
		resp.FileName = sess.Form.Avatar.FileName
		resp.MIMEType = sess.Form.Avatar.MIMEType
		resp.SizeBytes = sess.Form.Avatar.Size
		if sess.Preview.Ready && sess.Preview.Generation == sess.Form.Avatar.Generation {
			resp.PreviewURL = sess.Preview.DataURL
		}
	}
	return resp
}
