package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"handscan/internal/hands"
	"handscan/internal/metrics"
	"handscan/models"
	"handscan/pkg/handhistory"
	"handscan/pkg/phh"
	"handscan/pkg/video"
	"handscan/process/report"
)

func setupRoutes(r *gin.Engine) {
	r.GET("/metrics", metrics.Handler())
	r.GET("/healthz", metrics.Healthz)
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)

	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.GET("/events", listEventsHandler)
	authGroup.POST("/events", createEventHandler)
	authGroup.GET("/events/:eventId", getEventHandler)
	authGroup.GET("/events/:eventId/hands", listEventHandsHandler)
	authGroup.GET("/events/:eventId/summary", eventSummaryHandler)
	authGroup.POST("/events/:eventId/upload", uploadHandHandler)
	authGroup.GET("/hands/:handId", getHandHandler)
	authGroup.PUT("/hands/:handId", updateHandHandler)
	authGroup.POST("/hands/:handId/analyze", analyzeHandHandler)
	authGroup.GET("/hands/:handId/phh", handPHHHandler)
	authGroup.GET("/hands/:handId/review", handReviewHandler)
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return uint(id), true
}

// authorizeEvent loads an event the caller may see. It writes the error
// response itself and reports false when the request should stop.
func authorizeEvent(c *gin.Context, id uint) (*models.Event, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	var ev models.Event
	if err := db.First(&ev, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read event"})
		}
		return nil, false
	}
	if !isAdmin(c) && (ev.UserID == nil || *ev.UserID != user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return &ev, true
}

func authorizeHand(c *gin.Context) (*models.Hand, bool) {
	id, ok := parseID(c, "handId")
	if !ok {
		return nil, false
	}
	h, err := handSvc.Get(id)
	if err != nil {
		if errors.Is(err, hands.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "hand not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read hand"})
		}
		return nil, false
	}
	if _, ok := authorizeEvent(c, h.EventID); !ok {
		return nil, false
	}
	return h, true
}

// listEventsHandler lists the caller's events, newest first (admin sees all).
func listEventsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	events := []models.Event{}
	q := db.Model(&models.Event{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("created_at desc").Limit(200).Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func createEventHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event name is required"})
		return
	}
	uid := user.ID
	ev := models.Event{Name: strings.TrimSpace(req.Name), UserID: &uid}
	if err := db.Create(&ev).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create event"})
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func getEventHandler(c *gin.Context) {
	id, ok := parseID(c, "eventId")
	if !ok {
		return
	}
	ev, ok := authorizeEvent(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ev)
}

// listEventHandsHandler returns the event's hands in upload order.
func listEventHandsHandler(c *gin.Context) {
	id, ok := parseID(c, "eventId")
	if !ok {
		return
	}
	if _, ok := authorizeEvent(c, id); !ok {
		return
	}
	list := []models.Hand{}
	if err := db.Where("event_id = ?", id).Order("created_at asc").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read hands"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hands": list})
}

func eventSummaryHandler(c *gin.Context) {
	id, ok := parseID(c, "eventId")
	if !ok {
		return
	}
	if _, ok := authorizeEvent(c, id); !ok {
		return
	}
	s, err := report.ForEvent(db, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarise event"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// uploadHandHandler stores a multipart "file" video as a new hand. With
// analyze=true in the form the analysis runs before responding.
func uploadHandHandler(c *gin.Context) {
	id, ok := parseID(c, "eventId")
	if !ok {
		return
	}
	if _, ok := authorizeEvent(c, id); !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, appCfg.UploadMaxBytes())
	file, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer src.Close()

	h, err := handSvc.Store(id, file.Filename, src, file.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, hands.ErrInvalidFileName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
			return
		}
		logger.Error("upload failed", zap.Uint("event_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "file upload failed"})
		return
	}
	if c.PostForm("analyze") == "true" {
		if analysed, err := handSvc.Analyze(c.Request.Context(), h.ID); err == nil {
			h = analysed
		} else {
			logger.Warn("analysis after upload failed", zap.Uint("hand_id", h.ID), zap.Error(err))
		}
	}
	c.JSON(http.StatusCreated, h)
}

func getHandHandler(c *gin.Context) {
	h, ok := authorizeHand(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h)
}

// updateHandHandler saves the reviewed text history and completes the hand.
func updateHandHandler(c *gin.Context) {
	h, ok := authorizeHand(c)
	if !ok {
		return
	}
	var req struct {
		TextHistory *string `json:"textHistory"`
		Reparse     bool    `json:"reparse"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TextHistory == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "textHistory is required and must be a string"})
		return
	}
	updated, err := handSvc.UpdateText(h.ID, *req.TextHistory, req.Reparse)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update hand"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func analyzeHandHandler(c *gin.Context) {
	h, ok := authorizeHand(c)
	if !ok {
		return
	}
	updated, err := handSvc.Analyze(c.Request.Context(), h.ID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, updated)
	case errors.Is(err, hands.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, video.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "video file missing"})
	case errors.Is(err, video.ErrSourceUnopenable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "video cannot be decoded"})
	default:
		logger.Error("analysis failed", zap.Uint("hand_id", h.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
	}
}

func handRecord(c *gin.Context) (*models.Hand, handhistory.Record, bool) {
	h, ok := authorizeHand(c)
	if !ok {
		return nil, handhistory.Record{}, false
	}
	rec, err := hands.Record(h)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored hand data is corrupt"})
		return nil, handhistory.Record{}, false
	}
	return h, rec, true
}

// handPHHHandler exports the parsed hand as PHH TOML.
func handPHHHandler(c *gin.Context) {
	h, rec, ok := handRecord(c)
	if !ok {
		return
	}
	out, err := phh.EncodeToBytes(phh.FromRecord(rec, strconv.FormatUint(uint64(h.ID), 10)))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode hand"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="hand-`+strconv.FormatUint(uint64(h.ID), 10)+`.phh"`)
	c.Data(http.StatusOK, "application/toml; charset=utf-8", out)
}

// handReviewHandler lists problems in the parsed hand worth a manual look.
func handReviewHandler(c *gin.Context) {
	h, rec, ok := handRecord(c)
	if !ok {
		return
	}
	notes := handhistory.Review(rec)
	if notes == nil {
		notes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"id": h.ID, "status": h.Status, "notes": notes})
}
