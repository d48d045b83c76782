package upload

import (
	"encoding/base64"
	"encoding/hex"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/ticket-generator/internal/domain"
)

// EncodeDataURL renders avatar bytes as an inline image source.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Digest returns the hex BLAKE2b-256 sum of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Previewer decodes accepted avatars off the request path.
type Previewer struct {
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewPreviewer constructs a previewer.
func NewPreviewer(logger *zap.Logger) *Previewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Previewer{logger: logger}
}

// Start begins decoding avatar and delivers exactly one preview tagged
// with the avatar's generation.
func (p *Previewer) Start(avatar domain.AvatarFile) <-chan domain.Preview {
	out := make(chan domain.Preview, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(out)
		out <- domain.Preview{
			Generation: avatar.Generation,
			DataURL:    EncodeDataURL(avatar.MIMEType, avatar.Data),
			Ready:      true,
		}
		p.logger.Debug("avatar decoded",
			zap.Uint64("generation", avatar.Generation),
			zap.Int64("size", avatar.Size))
	}()
	return out
}

// Wait blocks until every started decode has delivered.
func (p *Previewer) Wait() {
	p.wg.Wait()
}

// ApplyPreview stores preview on the session only when it belongs to the
// current avatar. Late results for a replaced or removed file are dropped.
func ApplyPreview(sess *domain.Session, preview domain.Preview) bool {
	if sess == nil || !sess.Form.HasAvatar() {
		return false
	}
	if preview.Generation != sess.Generation || preview.Generation != sess.Form.Avatar.Generation {
		return false
	}
	sess.Preview = preview
	return true
}
