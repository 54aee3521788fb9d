package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memorybook/memorybook/services"
	"github.com/memorybook/memorybook/ui"
	"github.com/memorybook/memorybook/utils"
)

// multipart overhead allowed on top of the photo itself
const formSlackBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// MemoryController serves the public submission form and its JSON twin.
type MemoryController struct {
	submissions   *services.SubmissionService
	maxPhotoBytes int64
}

// NewMemoryController creates a new MemoryController instance.
func NewMemoryController(submissions *services.SubmissionService, maxPhotoBytes int64) *MemoryController {
	return &MemoryController{submissions: submissions, maxPhotoBytes: maxPhotoBytes}
}

// ShowForm renders an empty form.
func (m *MemoryController) ShowForm(ctx *gin.Context) {
	m.renderForm(ctx, http.StatusOK, ui.NewSubmissionForm(m.maxPhotoBytes))
}

// SubmitForm drives the form through one submit and renders the resulting state.
func (m *MemoryController) SubmitForm(ctx *gin.Context) {
	form := ui.NewSubmissionForm(m.maxPhotoBytes)

	fh, err := m.parse(ctx)
	if errors.Is(err, errBodyTooLarge) {
		form.Error = tooLargeMessage(m.maxPhotoBytes)
		m.renderForm(ctx, http.StatusRequestEntityTooLarge, form)
		return
	}
	if err != nil {
		form.Error = ui.GenericSubmitError
		m.renderForm(ctx, http.StatusBadRequest, form)
		return
	}

	form.Name = ctx.PostForm("name")
	form.YearMet = ctx.PostForm("year_met")
	form.Message = ctx.PostForm("message")

	if fh != nil {
		file, err := fh.Open()
		if err != nil {
			utils.Sugar.Warnf("open uploaded photo: %v", err)
			form.Error = ui.GenericSubmitError
			m.renderForm(ctx, http.StatusBadRequest, form)
			return
		}
		defer file.Close()
		if err := form.SelectPhoto(photoFrom(fh, file)); err != nil {
			m.renderForm(ctx, http.StatusRequestEntityTooLarge, form)
			return
		}
	}

	if err := form.Submit(ctx.Request.Context(), m.submissions); err != nil {
		m.renderForm(ctx, statusFor(err), form)
		return
	}
	ctx.HTML(http.StatusOK, "thanks.html", nil)
}

// CreateMemory accepts the same multipart fields and answers with the JSON envelope.
func (m *MemoryController) CreateMemory(ctx *gin.Context) {
	fh, err := m.parse(ctx)
	if errors.Is(err, errBodyTooLarge) {
		utils.Error(ctx, http.StatusRequestEntityTooLarge, 41301, tooLargeMessage(m.maxPhotoBytes))
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid multipart payload")
		return
	}

	in := services.SubmissionInput{
		Name:    ctx.PostForm("name"),
		YearMet: ctx.PostForm("year_met"),
		Message: ctx.PostForm("message"),
	}
	if fh != nil {
		if fh.Size > m.maxPhotoBytes {
			utils.Error(ctx, http.StatusRequestEntityTooLarge, 41301, tooLargeMessage(m.maxPhotoBytes))
			return
		}
		file, err := fh.Open()
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40002, "unreadable photo")
			return
		}
		defer file.Close()
		in.Photo = photoFrom(fh, file)
	}

	err = m.submissions.Submit(ctx.Request.Context(), in)
	var verr *services.ValidationError
	switch {
	case err == nil:
		utils.Created(ctx, gin.H{"saved": true})
	case errors.As(err, &verr):
		utils.Invalid(ctx, 40010, verr.Fields)
	case errors.Is(err, services.ErrBlobUpload):
		utils.Error(ctx, http.StatusBadGateway, 50201, "photo upload failed")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to save memory")
	}
}

// parse reads the multipart body and returns the optional photo header.
func (m *MemoryController) parse(ctx *gin.Context) (*multipart.FileHeader, error) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, m.maxPhotoBytes+formSlackBytes)
	if err := ctx.Request.ParseMultipartForm(m.maxPhotoBytes + formSlackBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			// urlencoded posts carry no photo; ParseMultipartForm already parsed the fields
			return nil, nil
		}
		return nil, err
	}
	fh, err := ctx.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	return fh, err
}

func (m *MemoryController) renderForm(ctx *gin.Context, status int, form *ui.SubmissionForm) {
	first, last := m.submissions.YearRange()
	ctx.HTML(status, "form.html", gin.H{
		"Form":          form,
		"Years":         ui.YearChoices(first, last),
		"MaxPhotoMB":    m.maxPhotoBytes / (1024 * 1024),
		"MaxPhotoBytes": m.maxPhotoBytes,
	})
}

func photoFrom(fh *multipart.FileHeader, file multipart.File) *services.Photo {
	return &services.Photo{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, ui.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrBlobUpload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func tooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("Photo must be less than %dMB", maxBytes/(1024*1024))
}
