package pdfapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	errorslib "github.com/goliatone/go-errors"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// DefaultMaxBufferBytes is the fallback buffer limit when streaming is unavailable.
const DefaultMaxBufferBytes int64 = 16 * 1024 * 1024

// Config configures the shared generation API controller.
type Config struct {
	Service          pdfgen.Service
	Store            pdfgen.ArtifactStore
	ActorProvider    pdfgen.ActorProvider
	BasePath         string
	SignedURLTTL     time.Duration
	IdempotencyStore IdempotencyStore
	IdempotencyTTL   time.Duration
	Logger           pdfgen.Logger
	RequestDecoder   RequestDecoder
	MaxBufferBytes   int64
}

// Controller exposes generation API handlers for multiple transports.
type Controller struct {
	service          pdfgen.Service
	store            pdfgen.ArtifactStore
	actorProvider    pdfgen.ActorProvider
	basePath         string
	signedURLTTL     time.Duration
	idempotencyStore IdempotencyStore
	idempotencyTTL   time.Duration
	logger           pdfgen.Logger
	requestDecoder   RequestDecoder
	maxBufferBytes   int64
}

// NewController creates a shared generation API controller.
func NewController(cfg Config) *Controller {
	basePath := strings.TrimRight(cfg.BasePath, "/")
	if basePath == "" {
		basePath = "/admin/pdfs"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pdfgen.NopLogger{}
	}
	decoder := cfg.RequestDecoder
	if decoder == nil {
		decoder = JSONRequestDecoder{}
	}
	maxBuffer := cfg.MaxBufferBytes
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBufferBytes
	}
	return &Controller{
		service:          cfg.Service,
		store:            cfg.Store,
		actorProvider:    cfg.ActorProvider,
		basePath:         basePath,
		signedURLTTL:     cfg.SignedURLTTL,
		idempotencyStore: cfg.IdempotencyStore,
		idempotencyTTL:   cfg.IdempotencyTTL,
		logger:           logger,
		requestDecoder:   decoder,
		maxBufferBytes:   maxBuffer,
	}
}

// BasePath returns the configured base path.
func (c *Controller) BasePath() string {
	if c == nil {
		return ""
	}
	return c.basePath
}

// Serve routes generation endpoints using the shared controller.
func (c *Controller) Serve(req Request, res Response) {
	if res == nil {
		return
	}
	if c == nil {
		WriteError(res, pdfgen.NewError(pdfgen.KindInternal, "handler is nil", nil))
		return
	}
	if req == nil {
		WriteError(res, pdfgen.NewError(pdfgen.KindInternal, "request is nil", nil))
		return
	}
	if !strings.HasPrefix(req.Path(), c.basePath) {
		writeNotFound(res)
		return
	}

	pathSuffix := strings.TrimPrefix(req.Path(), c.basePath)
	pathSuffix = strings.Trim(pathSuffix, "/")
	parts := []string{}
	if pathSuffix != "" {
		parts = strings.Split(pathSuffix, "/")
	}

	switch req.Method() {
	case http.MethodPost:
		if len(parts) != 0 {
			writeNotFound(res)
			return
		}
		c.handleGenerate(req, res)
	case http.MethodGet:
		switch len(parts) {
		case 0:
			c.handleList(req, res)
		case 1:
			c.handleStatus(req, res, parts[0])
		case 2:
			if parts[1] == "download" {
				c.handleDownload(req, res, parts[0])
				return
			}
			writeNotFound(res)
		default:
			writeNotFound(res)
		}
	case http.MethodDelete:
		if len(parts) != 1 {
			writeNotFound(res)
			return
		}
		c.handleDelete(req, res, parts[0])
	default:
		res.SetHeader("Allow", "GET,POST,DELETE")
		res.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (c *Controller) handleGenerate(req Request, res Response) {
	if c.service == nil {
		WriteError(res, pdfgen.NewError(pdfgen.KindNotImpl, "generation service not configured", nil))
		return
	}
	decoded, err := c.requestDecoder.Decode(req)
	if err != nil {
		WriteError(res, err)
		return
	}

	actor, err := c.actorFromRequest(req)
	if err != nil {
		WriteError(res, err)
		return
	}

	idempotencyKey := req.Header("Idempotency-Key")
	if idempotencyKey == "" {
		idempotencyKey = decoded.IdempotencyKey
	}
	if idempotencyKey != "" && c.idempotencyStore != nil {
		signature := buildIdempotencyKey(idempotencyKey, actor, decoded)
		generationID, ok, err := c.idempotencyStore.Get(req.Context(), signature)
		if err != nil {
			WriteError(res, err)
			return
		}
		if ok {
			record, err := c.service.Status(req.Context(), actor, generationID)
			if err == nil && isReusableState(record.State) {
				writeJSON(res, http.StatusOK, c.generateResponse(record))
				return
			}
		}
	}

	record, err := c.service.Generate(req.Context(), actor, decoded)
	if err != nil {
		WriteError(res, err)
		return
	}

	if idempotencyKey != "" && c.idempotencyStore != nil {
		signature := buildIdempotencyKey(idempotencyKey, actor, decoded)
		ttl := c.idempotencyTTL
		if ttl == 0 {
			ttl = 24 * time.Hour
		}
		if err := c.idempotencyStore.Set(req.Context(), signature, record.ID, ttl); err != nil {
			c.logger.Errorf("idempotency store set failed: %v", err)
		}
	}

	writeJSON(res, http.StatusCreated, c.generateResponse(record))
}

func (c *Controller) handleList(req Request, res Response) {
	if c.service == nil {
		WriteError(res, pdfgen.NewError(pdfgen.KindNotImpl, "generation service not configured", nil))
		return
	}
	actor, err := c.actorFromRequest(req)
	if err != nil {
		WriteError(res, err)
		return
	}

	filter, err := parseFilter(req)
	if err != nil {
		WriteError(res, err)
		return
	}

	records, err := c.service.List(req.Context(), actor, filter)
	if err != nil {
		WriteError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, records)
}

func (c *Controller) handleStatus(req Request, res Response, generationID string) {
	if c.service == nil {
		WriteError(res, pdfgen.NewError(pdfgen.KindNotImpl, "generation service not configured", nil))
		return
	}
	actor, err := c.actorFromRequest(req)
	if err != nil {
		WriteError(res, err)
		return
	}

	record, err := c.service.Status(req.Context(), actor, generationID)
	if err != nil {
		WriteError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, record)
}

func (c *Controller) handleDownload(req Request, res Response, generationID string) {
	if c.service == nil {
		WriteError(res, pdfgen.NewError(pdfgen.KindNotImpl, "generation service not configured", nil))
		return
	}
	actor, err := c.actorFromRequest(req)
	if err != nil {
		WriteError(res, err)
		return
	}

	if c.signedURLTTL > 0 && c.store != nil {
		record, err := c.service.Status(req.Context(), actor, generationID)
		if err != nil {
			WriteError(res, err)
			return
		}
		ttl := c.signedURLTTL
		if !record.Artifact.Meta.ExpiresAt.IsZero() {
			remaining := time.Until(record.Artifact.Meta.ExpiresAt)
			if remaining <= 0 {
				WriteError(res, pdfgen.NewError(pdfgen.KindValidation, "artifact expired", nil))
				return
			}
			if remaining < ttl {
				ttl = remaining
			}
		}
		url, err := c.store.SignedURL(req.Context(), record.Artifact.Key, ttl)
		if err == nil {
			_ = res.Redirect(url, http.StatusFound)
			return
		}
		if genErr, ok := err.(*pdfgen.GenerateError); ok && genErr.Kind != pdfgen.KindNotImpl {
			WriteError(res, err)
			return
		}
	}

	reader, meta, err := c.service.Download(req.Context(), actor, generationID)
	if err != nil {
		WriteError(res, err)
		return
	}
	defer reader.Close()

	filename := sanitizeFilename(meta.Filename)
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	setDownloadHeaders(res, generationID, filename, contentType)
	if meta.Size > 0 {
		res.SetHeader("Content-Length", fmt.Sprintf("%d", meta.Size))
	}

	if writer, ok := res.Writer(); ok {
		res.WriteHeader(http.StatusOK)
		if _, err := io.Copy(writer, reader); err != nil {
			c.logger.Errorf("download copy failed: %v", err)
		}
		return
	}

	buffer := newLimitedBuffer(c.maxBufferBytes)
	if _, err := io.Copy(buffer, reader); err != nil {
		clearDownloadHeaders(res)
		WriteError(res, err)
		return
	}

	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(buffer.Bytes()); err != nil {
		c.logger.Errorf("download buffer write failed: %v", err)
	}
}

func (c *Controller) handleDelete(req Request, res Response, generationID string) {
	if c.service == nil {
		WriteError(res, pdfgen.NewError(pdfgen.KindNotImpl, "generation service not configured", nil))
		return
	}
	actor, err := c.actorFromRequest(req)
	if err != nil {
		WriteError(res, err)
		return
	}

	if err := c.service.Delete(req.Context(), actor, generationID); err != nil {
		WriteError(res, err)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

func (c *Controller) actorFromRequest(req Request) (pdfgen.Actor, error) {
	if c.actorProvider == nil {
		return pdfgen.Actor{}, nil
	}
	actor, err := c.actorProvider.FromContext(req.Context())
	if err != nil {
		return pdfgen.Actor{}, pdfgen.NewError(pdfgen.KindValidation, "actor resolution failed", err)
	}
	return actor, nil
}

func (c *Controller) generateResponse(record pdfgen.GenerationRecord) GenerateResponse {
	return GenerateResponse{
		ID:          record.ID,
		State:       string(record.State),
		StatusURL:   c.statusURL(record.ID),
		DownloadURL: c.downloadURL(record.ID),
	}
}

func (c *Controller) statusURL(generationID string) string {
	return path.Join(c.basePath, generationID)
}

func (c *Controller) downloadURL(generationID string) string {
	return path.Join(c.basePath, generationID, "download")
}

func writeNotFound(res Response) {
	res.SetHeader("Content-Type", "text/plain; charset=utf-8")
	res.SetHeader("X-Content-Type-Options", "nosniff")
	res.WriteHeader(http.StatusNotFound)
	_, _ = res.Write([]byte("404 page not found\n"))
}

// WriteError writes a JSON error response with a mapped status code.
func WriteError(res Response, err error) {
	if err == nil {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	ge := pdfgen.AsGoError(err)
	status := statusForError(ge)
	payload := ErrorResponse{
		Error: ErrorBody{
			Message: ge.Message,
			Code:    ge.TextCode,
		},
	}
	writeJSON(res, status, payload)
}

func writeJSON(res Response, status int, payload any) {
	_ = res.WriteJSON(status, payload)
}

func statusForError(err *errorslib.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	if err.TextCode == "not_implemented" {
		return http.StatusNotImplemented
	}
	switch err.Category {
	case errorslib.CategoryValidation:
		return http.StatusBadRequest
	case errorslib.CategoryAuthz:
		return http.StatusForbidden
	case errorslib.CategoryNotFound:
		return http.StatusNotFound
	case errorslib.CategoryOperation:
		switch err.TextCode {
		case "canceled":
			return http.StatusConflict
		case "timeout":
			return http.StatusRequestTimeout
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusInternalServerError
	}
}

func parseFilter(req Request) (pdfgen.ProgressFilter, error) {
	filter := pdfgen.ProgressFilter{
		Name:  req.Query("name"),
		State: pdfgen.GenerationState(req.Query("state")),
	}
	if since := req.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return pdfgen.ProgressFilter{}, pdfgen.NewError(pdfgen.KindValidation, "invalid since timestamp", err)
		}
		filter.Since = ts
	}
	if until := req.Query("until"); until != "" {
		ts, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return pdfgen.ProgressFilter{}, pdfgen.NewError(pdfgen.KindValidation, "invalid until timestamp", err)
		}
		filter.Until = ts
	}
	return filter, nil
}

func isReusableState(state pdfgen.GenerationState) bool {
	switch state {
	case pdfgen.StateQueued, pdfgen.StateRunning, pdfgen.StateCompleted:
		return true
	default:
		return false
	}
}

func sanitizeFilename(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "document.pdf"
	}
	return name
}

func setDownloadHeaders(res Response, generationID, filename, contentType string) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res.SetHeader("Content-Type", contentType)
	res.SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if generationID != "" {
		res.SetHeader("X-Generation-Id", generationID)
	}
}

func clearDownloadHeaders(res Response) {
	res.DelHeader("Content-Disposition")
	res.DelHeader("Content-Type")
	res.DelHeader("X-Generation-Id")
}

type limitedBuffer struct {
	buf     bytes.Buffer
	maxSize int64
}

func newLimitedBuffer(maxSize int64) *limitedBuffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxBufferBytes
	}
	return &limitedBuffer{maxSize: maxSize}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.maxSize > 0 && int64(b.buf.Len()+len(p)) > b.maxSize {
		return 0, pdfgen.NewError(pdfgen.KindInternal, "buffer limit exceeded", nil)
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}
