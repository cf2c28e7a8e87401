package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"code.sajari.com/docconv"
	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
	"github.com/tessera-hq/tessera/internal/services"
)

type DocumentHandler struct {
	registry core.DocumentRegistry
	storage  core.ObjectClient
	commands *services.CommandService
	logger   *slog.Logger
}

func NewDocumentHandler(registry core.DocumentRegistry, storage core.ObjectClient, commands *services.CommandService, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{registry: registry, storage: storage, commands: commands, logger: logger}
}

// UploadDocument stores the file, registers the document, and starts its
// ingestion job.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(52 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	workspaceID, err := uuid.Parse(r.FormValue("workspace_id"))
	if err != nil {
		http.Error(w, "invalid workspace_id", http.StatusBadRequest)
		return
	}
	projectID, err := uuid.Parse(r.FormValue("project_id"))
	if err != nil {
		http.Error(w, "invalid project_id", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Strip any path components a client may have smuggled in.
	cleanFilename := filepath.Base(header.Filename)
	docID := uuid.New()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = docconv.MimeTypeByExtension(cleanFilename)
	}

	storageKey := fmt.Sprintf("workspaces/%s/documents/%s/%s", workspaceID, docID, cleanFilename)

	uploadCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	if _, err := h.storage.UploadFile(uploadCtx, storageKey, file, contentType); err != nil {
		h.logger.Error("upload.storage.failed", "document_id", docID, "err", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	doc := &models.Document{
		ID:          docID,
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		FileName:    cleanFilename,
		StorageKey:  storageKey,
		MimeType:    contentType,
		Status:      "uploaded",
	}
	if err := h.registry.CreateDocument(uploadCtx, doc); err != nil {
		h.logger.Error("upload.registry.failed", "document_id", docID, "err", err)
		http.Error(w, "failed to store document metadata", http.StatusInternalServerError)
		return
	}

	if err := h.commands.StartIngestionJob(uploadCtx, docID); err != nil {
		h.logger.Error("upload.ingest.failed", "document_id", docID, "err", err)
		http.Error(w, "failed to start ingestion", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(doc)
}
