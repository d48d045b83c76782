// Package upload accepts avatar images and turns them into previews.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/spec-kit/ticket-generator/internal/domain"
	apperrors "github.com/spec-kit/ticket-generator/pkg/util"
)

// MaxAvatarSize is the enforced avatar limit in bytes.
const MaxAvatarSize int64 = 500 * 1024

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

var (
	ErrInvalidFormat = apperrors.NewDomainError("AVATAR_INVALID_FORMAT", "Invalid format. Use JPG or PNG.", http.StatusUnsupportedMediaType, nil)
	ErrFileTooLarge  = apperrors.NewDomainError("AVATAR_TOO_LARGE", fmt.Sprintf("File too large. Maximum %s.", humanize.IBytes(uint64(MaxAvatarSize))), http.StatusRequestEntityTooLarge, nil)
)

// File is a candidate avatar from either the file picker or a drop.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Data     []byte
	Source   domain.UploadSource
}

// FromMultipart reads a multipart part into a File. Content beyond the
// size limit is not buffered; Size keeps the declared length so Accept
// can still reject it.
func FromMultipart(fh *multipart.FileHeader, source domain.UploadSource) (File, error) {
	f, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxAvatarSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read upload: %w", err)
	}

	size := fh.Size
	if size < int64(len(data)) {
		size = int64(len(data))
	}
	return File{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Size:     size,
		Data:     data,
		Source:   ParseSource(source),
	}, nil
}

// ParseSource defaults unknown sources to the file picker.
func ParseSource(source domain.UploadSource) domain.UploadSource {
	if source == domain.UploadSourceDrop {
		return domain.UploadSourceDrop
	}
	return domain.UploadSourcePicker
}

// Accept checks type then size. A rejected file leaves no trace. An empty
// file is not an image of either type.
func Accept(file File) (*domain.AvatarFile, error) {
	mimeType := DetectType(file)
	if _, ok := allowedTypes[mimeType]; !ok {
		return nil, ErrInvalidFormat
	}
	if file.Size <= 0 || len(file.Data) == 0 {
		return nil, ErrInvalidFormat
	}
	if file.Size > MaxAvatarSize || int64(len(file.Data)) > MaxAvatarSize {
		return nil, ErrFileTooLarge
	}

	data := make([]byte, len(file.Data))
	copy(data, file.Data)
	return &domain.AvatarFile{
		FileName: file.Name,
		MIMEType: mimeType,
		Size:     file.Size,
		Data:     data,
		Digest:   Digest(data),
		Source:   file.Source,
	}, nil
}

// DetectType trusts the declared type and sniffs only when none was sent.
func DetectType(file File) string {
	declared := strings.ToLower(strings.TrimSpace(file.MIMEType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(file.Data) == 0 {
		return declared
	}
	return http.DetectContentType(file.Data)
}
