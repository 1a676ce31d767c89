package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/batch"
	"github.com/fhuonder/belegscan/internal/export"
	"github.com/fhuonder/belegscan/internal/store"
)

// allowedFileTypes is the closed set of upload content types the pipeline
// can process.
var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

type handler struct {
	store       *store.Store
	processor   *batch.Processor
	exporter    *export.Exporter
	maxUploadMB int64
	logger      *zap.Logger
}

func newHandler(st *store.Store, processor *batch.Processor, exporter *export.Exporter, maxUploadMB int64, logger *zap.Logger) *handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &handler{
		store:       st,
		processor:   processor,
		exporter:    exporter,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
}

func (h *handler) registerRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	{
		api.POST("/documents", h.uploadDocuments)
		api.GET("/documents", h.listDocuments)
		api.DELETE("/documents/:id", h.deleteDocument)
		api.DELETE("/documents", h.deleteAllDocuments)
		api.GET("/processing", h.processingStatus)
		api.POST("/processing/stop", h.stopProcessing)
		api.GET("/export", h.exportDocuments)
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "belegscan",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// uploadDocuments accepts a multipart batch and enqueues it for sequential
// processing. It returns as soon as the placeholder records exist; clients
// poll the document list for per-file outcomes.
func (h *handler) uploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	maxBytes := h.maxUploadMB << 20
	files := make([]batch.File, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		if fh.Size > maxBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file %s exceeds the %dMB limit", fh.Filename, h.maxUploadMB),
			})
			return
		}

		contentType := fh.Header.Get("Content-Type")
		if !allowedFileTypes[contentType] {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error": fmt.Sprintf("file %s has unsupported type %q", fh.Filename, contentType),
			})
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to open file %s", fh.Filename)})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to read file %s", fh.Filename)})
			return
		}

		files = append(files, batch.File{
			Name: fh.Filename,
			Type: contentType,
			Data: data,
		})
	}

	ids, err := h.processor.Submit(c.Request.Context(), files)
	if err != nil {
		if errors.Is(err, batch.ErrBatchRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "a batch is already being processed"})
			return
		}
		h.logger.Error("Failed to submit batch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded documents"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"document_ids": ids,
		"count":        len(ids),
	})
}

func (h *handler) listDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"documents": h.store.List()})
}

func (h *handler) deleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Remove(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete document", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) deleteAllDocuments(c *gin.Context) {
	if err := h.store.RemoveAll(c.Request.Context()); err != nil {
		h.logger.Error("Failed to clear documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear documents"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) processingStatus(c *gin.Context) {
	processed, total := h.processor.Progress()
	c.JSON(http.StatusOK, gin.H{
		"running":   h.processor.Running(),
		"processed": processed,
		"total":     total,
	})
}

// stopProcessing requests cooperative cancellation of the running batch. It
// returns immediately; the in-flight document still finishes.
func (h *handler) stopProcessing(c *gin.Context) {
	h.processor.Stop()
	c.JSON(http.StatusAccepted, gin.H{"running": h.processor.Running()})
}

func (h *handler) exportDocuments(c *gin.Context) {
	buf, err := h.exporter.Export(h.store.List())
	if err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no completed documents to export"})
			return
		}
		h.logger.Error("Failed to build export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}

	filename := fmt.Sprintf("documents_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
