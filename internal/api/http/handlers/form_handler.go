package handlers

import (
	"errors"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-generator/internal/api/dto"
	"github.com/spec-kit/ticket-generator/internal/auth"
	"github.com/spec-kit/ticket-generator/internal/domain"
	"github.com/spec-kit/ticket-generator/internal/render"
	"github.com/spec-kit/ticket-generator/internal/service"
	"github.com/spec-kit/ticket-generator/internal/upload"
	apperrors "github.com/spec-kit/ticket-generator/pkg/util"
)

// FormHandler serves the browser form and ticket screens.
type FormHandler struct {
	forms    *service.FormService
	renderer *render.Renderer
	maxSize  string
}

// NewFormHandler constructs handler.
func NewFormHandler(forms *service.FormService, renderer *render.Renderer) *FormHandler {
	return &FormHandler{
		forms:    forms,
		renderer: renderer,
		maxSize:  humanize.IBytes(uint64(upload.MaxAvatarSize)),
	}
}

// Show GET /.
func (h *FormHandler) Show(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if sess.Issued() {
		return c.Redirect("/ticket", fiber.StatusSeeOther)
	}
	return h.renderForm(c, fiber.StatusOK, sess)
}

// UploadAvatar POST /avatar. The file picker and drop zone both post here.
func (h *FormHandler) UploadAvatar(c *fiber.Ctx) error {
	sessionID, err := requireSession(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return apperrors.NewBadRequest("avatar file required")
	}
	file, err := upload.FromMultipart(fh, domain.UploadSource(c.FormValue("source")))
	if err != nil {
		return apperrors.NewBadRequest("unreadable avatar upload")
	}

	sess, err := h.forms.SelectAvatar(c.UserContext(), sessionID, file)
	if err != nil && !isUploadRejection(err) {
		return err
	}
	if acceptsJSON(c) {
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewAvatarStateResponse(sess)})
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// RemoveAvatar POST /avatar/remove.
func (h *FormHandler) RemoveAvatar(c *fiber.Ctx) error {
	sessionID, err := requireSession(c)
	if err != nil {
		return err
	}
	sess, err := h.forms.RemoveAvatar(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	if acceptsJSON(c) {
		return c.JSON(fiber.Map{"data": dto.NewAvatarStateResponse(sess)})
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// AvatarPreview GET /avatar/preview serves the current avatar bytes.
func (h *FormHandler) AvatarPreview(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if !sess.Form.HasAvatar() {
		return apperrors.NewNotFound("avatar", nil)
	}
	avatar := sess.Form.Avatar
	etag := `"` + avatar.Digest + `"`
	c.Set(fiber.HeaderETag, etag)
	c.Set(fiber.HeaderCacheControl, "private, no-cache")
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	c.Set(fiber.HeaderContentType, avatar.MIMEType)
	return c.Send(avatar.Data)
}

// Submit POST /tickets.
func (h *FormHandler) Submit(c *fiber.Ctx) error {
	sessionID, err := requireSession(c)
	if err != nil {
		return err
	}
	input, err := parseSubmission(c)
	if err != nil {
		return err
	}

	sess, err := h.forms.Submit(c.UserContext(), sessionID, input)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeValidationFailed) && sess != nil && !acceptsJSON(c) {
			return h.renderForm(c, fiber.StatusUnprocessableEntity, sess)
		}
		return err
	}
	return c.Redirect("/ticket", fiber.StatusSeeOther)
}

// Ticket GET /ticket.
func (h *FormHandler) Ticket(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if !sess.Issued() {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	page, err := h.renderer.Ticket(*sess.Ticket, sess.Phase, h.forms.Transition())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Type("html", "utf-8")
	return c.Send(page)
}

func (h *FormHandler) session(c *fiber.Ctx) (*domain.Session, error) {
	sessionID, err := requireSession(c)
	if err != nil {
		return nil, err
	}
	return h.forms.State(c.UserContext(), sessionID)
}

func (h *FormHandler) renderForm(c *fiber.Ctx, status int, sess *domain.Session) error {
	page, err := h.renderer.Form(sess, h.maxSize)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(page)
}

// parseSubmission reads the text fields and, when the form carried a
// non-empty file, the avatar.
func parseSubmission(c *fiber.Ctx) (service.SubmitInput, error) {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return service.SubmitInput{}, apperrors.NewBadRequest("invalid payload")
	}
	input := service.SubmitInput{
		FullName: req.FullName,
		Email:    req.Email,
		GitHub:   req.GitHub,
	}
	fh, err := c.FormFile("avatar")
	if err != nil || fh == nil || (fh.Filename == "" && fh.Size == 0) {
		return input, nil
	}
	file, err := upload.FromMultipart(fh, domain.UploadSource(req.Source))
	if err != nil {
		return service.SubmitInput{}, apperrors.NewBadRequest("unreadable avatar upload")
	}
	input.Avatar = &file
	return input, nil
}

func requireSession(c *fiber.Ctx) (string, error) {
	id, ok := auth.SessionIDFromContext(c)
	if !ok {
		return "", apperrors.NewInternalError(errors.New("session middleware not installed"))
	}
	return id, nil
}

func isUploadRejection(err error) bool {
	return errors.Is(err, upload.ErrInvalidFormat) || errors.Is(err, upload.ErrFileTooLarge)
}

func acceptsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
