package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/extract"
	"dealflow-ai/internal/indexer"
	"dealflow-ai/internal/status"
	"dealflow-ai/internal/storage"
)

// maxUploadBytes caps a single uploaded file at 20 MiB.
const maxUploadBytes = 20 << 20

// UploadHandler receives files for a card, stores them, and indexes their content in
// the background. Clients poll the status endpoint for progress.
type UploadHandler struct {
	pipeline   *indexer.Pipeline
	extractor  extract.Extractor
	statuses   *status.Store
	files      *storage.FileRepo
	uploadsDir string
}

func NewUploadHandler(pipeline *indexer.Pipeline, extractor extract.Extractor, statuses *status.Store, files *storage.FileRepo, uploadsDir string) *UploadHandler {
	return &UploadHandler{
		pipeline:   pipeline,
		extractor:  extractor,
		statuses:   statuses,
		files:      files,
		uploadsDir: uploadsDir,
	}
}

// FileUploadResponse represents the upload acknowledgement.
type FileUploadResponse struct {
	Success  bool   `json:"success"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
	StatusID string `json:"status_id"`
}

// Upload handles POST /api/cards/{card_id}/upload. The file is persisted and recorded
// synchronously; extraction and indexing continue in the background.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	cardID := chi.URLParam(r, "cardID")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "invalid upload request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid upload request")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	originalName := header.Filename
	if !h.extractor.Supports(originalName) {
		writeError(w, http.StatusBadRequest, "Invalid file type. Allowed: .txt, .md")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	fileID := uuid.NewString()
	storedName := cardID + "_" + fileID + strings.ToLower(filepath.Ext(originalName))
	storedPath := filepath.Join(h.uploadsDir, storedName)

	statusID := h.statuses.Create(cardID, originalName)
	h.statuses.Update(statusID, status.StageUploading, 10)

	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		logger.ErrorContext(ctx, "failed to store upload", "path", storedPath, "error", err)
		h.statuses.Fail(statusID, "Failed to store file")
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	if _, err := h.files.Save(ctx, cardID, originalName, storedPath, int64(len(data))); err != nil {
		logger.ErrorContext(ctx, "failed to record upload", "error", err)
		h.statuses.Fail(statusID, "Failed to record file")
		writeError(w, http.StatusInternalServerError, "Failed to record file")
		return
	}

	// Indexing outlives the request; the status store is the progress channel.
	bgCtx := contextutil.WithLogger(context.Background(), logger)
	go h.indexInBackground(bgCtx, cardID, originalName, fileID, statusID, data)

	writeJSON(w, http.StatusOK, FileUploadResponse{
		Success:  true,
		FileID:   fileID,
		Filename: storedName,
		Message:  "File uploaded successfully",
		StatusID: statusID,
	})
}

func (h *UploadHandler) indexInBackground(ctx context.Context, cardID, filename, fileID, statusID string, data []byte) {
	logger := contextutil.LoggerFromContext(ctx)

	h.statuses.Update(statusID, status.StageExtracting, 30)
	text, err := h.extractor.Extract(filename, data)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.WarnContext(ctx, "could not extract text from upload", "filename", filename, "error", err)
		h.statuses.Fail(statusID, "Could not extract text from document")
		return
	}

	h.statuses.Update(statusID, status.StageChunking, 50)
	meta := map[string]any{"file_id": fileID, "file_size": len(data)}
	if err := h.pipeline.IndexDocument(ctx, cardID, filename, text, meta, statusID); err != nil {
		logger.ErrorContext(ctx, "failed to index upload", "filename", filename, "error", err)
		h.statuses.Fail(statusID, "Indexing failed: "+err.Error())
		return
	}
	h.statuses.Complete(statusID)
}

// Status handles GET /api/upload/status/{status_id}.
func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	statusID := chi.URLParam(r, "statusID")
	up, err := h.statuses.Get(statusID)
	if errors.Is(err, status.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Status not found")
		return
	}
	writeJSON(w, http.StatusOK, up)
}

// CardFilesResponse lists the files uploaded for one card.
type CardFilesResponse struct {
	CardID string               `json:"card_id"`
	Files  []storage.FileRecord `json:"files"`
}

// Files handles GET /api/cards/{card_id}/files.
func (h *UploadHandler) Files(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	cardID := chi.URLParam(r, "cardID")
	records, err := h.files.ListByCard(ctx, cardID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list card files", "card_id", cardID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}
	if records == nil {
		records = []storage.FileRecord{}
	}
	writeJSON(w, http.StatusOK, CardFilesResponse{CardID: cardID, Files: records})
}
