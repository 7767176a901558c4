package api

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/models"
	"docqa/internal/service/assistant"
)

const (
	// OutcomeHeader tells callers whether the answer is model output or a
	// fallback diagnostic.
	OutcomeHeader = "X-Answer-Outcome"

	// room for the question field and multipart framing
	formOverhead = 1 << 20
)

type Assistant interface {
	Handle(ctx context.Context, req assistant.Request) (*assistant.Response, error)
}

// Handler exposes the question answering endpoint.
type Handler struct {
	assistant      Assistant
	maxUploadBytes int64
}

func NewHandler(svc Assistant, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &Handler{assistant: svc, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)
	router.POST("/api", h.answer)
	router.POST("/api/", h.answer)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) answer(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverhead)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid form data"})
		return
	}
	question := strings.TrimSpace(c.PostForm("question"))
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "question is required"})
		return
	}

	upload, status, err := h.readUpload(c)
	if err != nil {
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}

	resp, err := h.assistant.Handle(c.Request.Context(), assistant.Request{Question: question, Upload: upload})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if resp.IsImage() {
		c.Header(OutcomeHeader, string(models.OutcomeOK))
		c.Header("Content-Type", "image/png")
		c.FileAttachment(resp.ImagePath, resp.ImageName)
		return
	}
	c.Header(OutcomeHeader, string(resp.Answer.Outcome))
	c.JSON(http.StatusOK, gin.H{"answer": resp.Answer.Message()})
}

// readUpload returns a nil upload when the request carries no file.
func (h *Handler) readUpload(c *gin.Context) (*models.Upload, int, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, 0, nil
		}
		return nil, http.StatusBadRequest, errors.New("invalid file")
	}
	if fh.Size > h.maxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, errors.New("file too large")
	}
	data, err := readFormFile(fh)
	if err != nil {
		log.Printf("read upload %s failed: %v", fh.Filename, err)
		return nil, http.StatusBadRequest, errors.New("read file failed")
	}
	return &models.Upload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, 0, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// multipart does not always wrap the reader error, so match the text too.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Unsupported file format"})
	case errors.Is(err, extract.ErrImageProcessing):
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error processing image"})
	case errors.Is(err, assistant.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "question is required"})
	default:
		log.Printf("handle question failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
