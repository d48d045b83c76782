package domain

import "time"

const (
	TicketNumberMin = 10000
	TicketNumberMax = 99999
)

// TicketView is the display-only confirmation derived from a valid FormState.
type TicketView struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	GitHub        string    `json:"github"`
	AvatarDataURL string    `json:"avatar_data_url"`
	AvatarDigest  string    `json:"avatar_digest"`
	Number        int       `json:"ticket_number"`
	IssuedAt      time.Time `json:"issued_at"`
}

// IssuedTicket is the ledger record kept for every generated ticket.
type IssuedTicket struct {
	ID             string
	SessionID      string
	Ticket         TicketView
	AvatarMIMEType string
	AvatarData     []byte
}
