package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// maxImageBytes caps listing image uploads at 8 MiB.
const maxImageBytes = 8 << 20

// allowedImageTypes are the content types accepted for listing images.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// BlobHandler serves listing image upload and retrieval. Uploads return an
// opaque blob key that sellers include in an item's image_refs; items never
// embed image bytes.
type BlobHandler struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	logger *slog.Logger
}

// NewBlobHandler creates a BlobHandler with the given blob store and logger.
func NewBlobHandler(writer domain.BlobWriter, reader domain.BlobReader, logger *slog.Logger) *BlobHandler {
	return &BlobHandler{
		writer: writer,
		reader: reader,
		logger: logHandler(logger, "blob"),
	}
}

// UploadImage stores a listing image and returns its blob key. The body is
// the raw image; the Content-Type header names the format.
// POST /api/images
func (h *BlobHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		writeError(w, http.StatusBadRequest, "unsupported image type "+contentType)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image body")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty image body")
		return
	}
	if len(data) > maxImageBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d bytes", maxImageBytes))
		return
	}

	key := fmt.Sprintf("images/%s/%s", strings.ToLower(actor), uuid.New().String())
	if err := h.writer.Put(r.Context(), key, data, contentType); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: image upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "image store unavailable")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// GetImage streams a stored listing image.
// GET /api/images/{key...}
func (h *BlobHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing image key")
		return
	}

	data, contentType, err := h.reader.Get(r.Context(), "images/"+key)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
