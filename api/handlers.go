package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"veribuy/models"
	"veribuy/services"
	"veribuy/storage"
)

const (
	viewHeader            = "X-Veribuy-View"
	identifyFailedMessage = "Could not identify the product. Please try again."
	xlsxContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type scanRequest struct {
	Query string `json:"query" form:"query" binding:"required"`
}

type chatRequest struct {
	Text string `json:"text" binding:"required"`
}

// createScan accepts a multipart "image" file or a JSON/form "query".
func (s *Server) createScan(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		rec *models.ScanRecord
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, ferr := c.FormFile("image")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		f, ferr := file.Open()
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
			return
		}
		defer f.Close()

		img, encErr := services.EncodeImage(f, s.cfg.MaxImageDimension)
		if encErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": encErr.Error()})
			return
		}
		rec, err = s.scanner.ScanImage(ctx, img)
	} else {
		var req scanRequest
		if berr := c.ShouldBind(&req); berr != nil || strings.TrimSpace(req.Query) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
			return
		}
		rec, err = s.scanner.ScanQuery(ctx, req.Query)
	}

	if err != nil {
		_ = c.Error(err)
		setView(c, models.ViewLanding)
		if errors.Is(err, models.ErrIdentification) {
			c.JSON(http.StatusBadGateway, gin.H{"error": identifyFailedMessage})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}

	// The record is in memory even if the write failed.
	if err := s.store.RecordScan(ctx, *rec); err != nil {
		s.logger.Error("[api] Recording scan %s: %v", rec.ID, err)
	}
	setView(c, models.ViewDashboard)
	c.JSON(http.StatusCreated, rec)
}

// setView tells the client which screen the response belongs on.
func setView(c *gin.Context, v models.View) {
	c.Header(viewHeader, string(v))
}

func (s *Server) listHistory(c *gin.Context) {
	setView(c, models.ViewHistory)
	c.JSON(http.StatusOK, orEmpty(s.store.History()))
}

func (s *Server) getHistory(c *gin.Context) {
	id := c.Param("id")
	rec, ok := s.store.FindHistory(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrNotFound.Error()})
		return
	}
	setView(c, models.ViewDashboard)
	c.JSON(http.StatusOK, gin.H{"record": rec, "saved": s.store.IsSaved(id)})
}

func (s *Server) deleteHistory(c *gin.Context) {
	if err := s.store.DeleteFromHistory(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listSaved(c *gin.Context) {
	setView(c, models.ViewSaved)
	c.JSON(http.StatusOK, orEmpty(s.store.Saved()))
}

func (s *Server) toggleSaved(c *gin.Context) {
	rec, ok := s.store.Find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrNotFound.Error()})
		return
	}
	saved, err := s.store.ToggleSaved(c.Request.Context(), rec)
	if err != nil {
		_ = c.Error(err)
		s.logger.Error("[api] Toggling saved %s: %v", rec.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "saved": saved})
}

func (s *Server) deleteSaved(c *gin.Context) {
	if err := s.store.DeleteFromSaved(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getInsights(c *gin.Context) {
	c.JSON(http.StatusOK, s.insights.Generate(s.store.History(), s.store.Saved()))
}

// export streams history (or saved with ?collection=saved) as csv or xlsx.
func (s *Server) export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	collection := c.DefaultQuery("collection", "history")

	var records []models.ScanRecord
	switch collection {
	case "history":
		records = s.store.History()
	case "saved":
		records = s.store.Saved()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown collection %q", collection)})
		return
	}

	var buf bytes.Buffer
	exporter, err := storage.NewExporter(format, &buf)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := exporter.Export(records); err != nil {
		_ = exporter.Close()
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	if err := exporter.Close(); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == "xlsx" {
		contentType = xlsxContentType
	} else {
		format = "csv"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="veribuy-%s.%s"`, collection, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) createChat(c *gin.Context) {
	transport, err := s.startChat(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start a chat session"})
		return
	}

	id := uuid.NewString()
	session := services.NewChatSession(transport, s.cfg.ChatTimeout, s.logger)
	if evicted := s.sessions.Add(id, session); evicted {
		s.logger.Debug("[api] Chat session cache full, evicted oldest")
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "messages": session.Messages()})
}

func (s *Server) listChatMessages(c *gin.Context) {
	session, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat session not found"})
		return
	}
	c.JSON(http.StatusOK, session.Messages())
}

func (s *Server) sendChatMessage(c *gin.Context) {
	session, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat session not found"})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrEmptyMessage.Error()})
		return
	}
	msg, err := session.Send(c.Request.Context(), req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, msg)
}

func orEmpty(records []models.ScanRecord) []models.ScanRecord {
	if records == nil {
		return []models.ScanRecord{}
	}
	return records
}
