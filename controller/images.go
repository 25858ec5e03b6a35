package controller

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"imagegallery/models"
	"imagegallery/rendition"
	"imagegallery/store"
	"imagegallery/utils"
)

type ImageStore interface {
	Save(ctx context.Context, in store.SaveInput) (string, error)
	GetByID(ctx context.Context, id string) (*models.ImageRecord, error)
	Search(ctx context.Context, params models.SearchParams) ([]models.ImageRecord, error)
	AllTags(ctx context.Context) ([]string, error)
}

type Renderer interface {
	Render(ctx context.Context, id, format string, size int) (*rendition.Rendition, error)
}

// Options configures request limits of the image endpoints.
type Options struct {
	MaxUploadBytes     int64
	RequiredDimension  int
	DefaultSearchLimit int
}

// multipartOverhead is allowed on top of MaxUploadBytes for the other
// form fields and part headers.
const multipartOverhead = 64 << 10

type ImageController struct {
	images   ImageStore
	renderer Renderer
	opts     Options
	log      zerolog.Logger
}

func NewImageController(images ImageStore, renderer Renderer, opts Options, log zerolog.Logger) *ImageController {
	return &ImageController{
		images:   images,
		renderer: renderer,
		opts:     opts,
		log:      log.With().Str("component", "controller").Logger(),
	}
}

func (ic *ImageController) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.opts.MaxUploadBytes+multipartOverhead)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ic.respondError(c, http.StatusRequestEntityTooLarge, "image exceeds the upload limit")
			return
		}
		ic.respondError(c, http.StatusBadRequest, "no image file provided")
		return
	}
	if file.Size > ic.opts.MaxUploadBytes {
		ic.respondError(c, http.StatusRequestEntityTooLarge, "image exceeds the upload limit")
		return
	}

	tags := utils.ParseTags(c.PostForm("tags"))
	if len(tags) == 0 {
		ic.respondError(c, http.StatusBadRequest, "at least one tag is required")
		return
	}

	fileContent, err := file.Open()
	if err != nil {
		ic.logger(c).Error().Err(err).Msg("open upload")
		ic.respondError(c, http.StatusInternalServerError, "something went wrong")
		return
	}
	defer fileContent.Close()

	data, err := io.ReadAll(fileContent)
	if err != nil {
		ic.logger(c).Error().Err(err).Msg("read upload")
		ic.respondError(c, http.StatusInternalServerError, "something went wrong")
		return
	}
	if len(data) == 0 {
		ic.respondError(c, http.StatusBadRequest, "image file is empty")
		return
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		ic.respondError(c, http.StatusBadRequest, "file is not an image")
		return
	}

	if d := ic.opts.RequiredDimension; d > 0 {
		w, h, _, err := rendition.Inspect(data)
		if err != nil {
			ic.respondError(c, http.StatusBadRequest, "image could not be read")
			return
		}
		if w != d || h != d {
			ic.respondError(c, http.StatusBadRequest,
				"image must be "+strconv.Itoa(d)+"x"+strconv.Itoa(d)+" pixels, got "+strconv.Itoa(w)+"x"+strconv.Itoa(h))
			return
		}
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detected.String()
	}

	id, err := ic.images.Save(c.Request.Context(), store.SaveInput{
		Data:         data,
		OriginalName: file.Filename,
		Filename:     utils.SanitizeFilename(file.Filename),
		Mimetype:     contentType,
		Tags:         tags,
	})
	if err != nil {
		ic.fail(c, err)
		return
	}

	ic.logger(c).Info().Str("id", id).Str("name", file.Filename).Int("bytes", len(data)).Strs("tags", tags).Msg("image uploaded")
	c.JSON(http.StatusOK, models.UploadResponse{Success: true, ImageID: id})
}

func (ic *ImageController) Search(c *gin.Context) {
	var q models.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ic.respondError(c, http.StatusBadRequest, "invalid search parameters")
		return
	}

	limit := ic.opts.DefaultSearchLimit
	if q.Limit != nil {
		limit = *q.Limit
	}

	records, err := ic.images.Search(c.Request.Context(), models.SearchParams{
		Tags:   utils.ParseTags(q.Tags),
		Limit:  limit,
		Offset: q.Offset,
	})
	if err != nil {
		ic.fail(c, err)
		return
	}

	images := make([]models.ImageResponse, 0, len(records))
	for _, r := range records {
		images = append(images, models.NewImageResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "images": images, "total": len(images)})
}

func (ic *ImageController) Tags(c *gin.Context) {
	tags, err := ic.images.AllTags(c.Request.Context())
	if err != nil {
		ic.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tags": tags})
}

// GetImage serves the stored bytes unchanged. Payloads are immutable, so
// they may be cached indefinitely.
func (ic *ImageController) GetImage(c *gin.Context) {
	rec, err := ic.images.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		ic.fail(c, err)
		return
	}

	contentType := rec.Mimetype
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("Content-Length", strconv.Itoa(len(rec.Buffer)))
	c.Data(http.StatusOK, contentType, rec.Buffer)
}

func (ic *ImageController) Download(c *gin.Context) {
	var q models.DownloadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ic.respondError(c, http.StatusBadRequest, "id and format are required")
		return
	}

	size := rendition.DefaultSize
	if q.Size != nil {
		size = *q.Size
	}

	r, err := ic.renderer.Render(c.Request.Context(), q.ID, q.Format, size)
	if err != nil {
		ic.fail(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": r.Filename}))
	c.Header("Content-Length", strconv.Itoa(len(r.Data)))
	c.Data(http.StatusOK, r.ContentType, r.Data)
}

func (ic *ImageController) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		ic.respondError(c, http.StatusNotFound, "image not found")
	case errors.Is(err, rendition.ErrInvalidFormat):
		ic.respondError(c, http.StatusBadRequest, "unsupported format")
	case errors.Is(err, rendition.ErrInvalidSize):
		ic.respondError(c, http.StatusBadRequest, "invalid size")
	case errors.Is(err, store.ErrEmptyPayload):
		ic.respondError(c, http.StatusBadRequest, "image file is empty")
	case errors.Is(err, context.Canceled):
		c.Abort()
	case errors.Is(err, rendition.ErrProcessingFailed):
		ic.logger(c).Error().Err(err).Str("path", c.Request.URL.Path).Msg("processing failed")
		ic.respondError(c, http.StatusInternalServerError, "image processing failed")
	default:
		ic.logger(c).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		ic.respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func (ic *ImageController) logger(c *gin.Context) *zerolog.Logger {
	return utils.ContextLogger(c.Request.Context(), ic.log, "controller")
}

func (ic *ImageController) respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}
