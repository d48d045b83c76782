package domain

// UploadSource records how the avatar reached the server.
type UploadSource string

const (
	UploadSourcePicker UploadSource = "picker"
	UploadSourceDrop   UploadSource = "drop"
)

// AvatarFile is an accepted avatar image held in memory.
type AvatarFile struct {
	FileName   string       `json:"file_name"`
	MIMEType   string       `json:"mime_type"`
	Size       int64        `json:"size"`
	Data       []byte       `json:"data"`
	Digest     string       `json:"digest"`
	Source     UploadSource `json:"source"`
	Generation uint64       `json:"generation"`
}

// Preview is the decoded, displayable form of the current avatar.
type Preview struct {
	Generation uint64 `json:"generation"`
	DataURL    string `json:"data_url,omitempty"`
	Ready      bool   `json:"ready"`
}
