package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"platewatch-service/internal/config"
	"platewatch-service/internal/domain/platewatch"
	"platewatch-service/internal/notify"
	"platewatch-service/internal/service"
)

type Handler struct {
	detectionService *service.DetectionService
	cameraService    *service.CameraService
	uploadService    *service.UploadService
	broadcaster      *notify.Broadcaster
	config           *config.Config
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

func NewHandler(
	detectionService *service.DetectionService,
	cameraService *service.CameraService,
	uploadService *service.UploadService,
	broadcaster *notify.Broadcaster,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	h := &Handler{
		detectionService: detectionService,
		cameraService:    cameraService,
		uploadService:    uploadService,
		broadcaster:      broadcaster,
		config:           cfg,
		log:              log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	{
		api.GET("/camera", h.getCamera)
		api.POST("/camera/heartbeat", h.cameraHeartbeat)

		api.GET("/detections", h.listDetections)
		api.POST("/detections", h.createDetection)
		api.GET("/detections/stream/sse", h.streamDetectionsSSE)
		api.GET("/detections/stream/ws", h.streamDetectionsWS)
		api.GET("/detections/:id", h.getDetection)

		api.GET("/summary", h.getSummary)

		api.GET("/uploads", h.listUploads)
		api.POST("/uploads", h.saveUpload)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": platewatch.FormatTime(time.Now()),
	})
}

type heartbeatRequest struct {
	Status     string   `json:"status" binding:"required,oneof=idle live offline"`
	Mode       string   `json:"mode" binding:"required,oneof=webcam rtsp upload"`
	FPS        *float64 `json:"fps" binding:"required,min=0,max=120"`
	Resolution string   `json:"resolution" binding:"required,resolution"`
}

func (h *Handler) getCamera(c *gin.Context) {
	status, err := h.cameraService.Get(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) cameraHeartbeat(c *gin.Context) {
	var req heartbeatRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.cameraService.Heartbeat(c.Request.Context(), service.Heartbeat{
		Status:     platewatch.CameraState(req.Status),
		Mode:       platewatch.CameraMode(req.Mode),
		FPS:        *req.FPS,
		Resolution: req.Resolution,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type listDetectionsQuery struct {
	Page      *int   `form:"page" binding:"omitempty,min=1"`
	Limit     *int   `form:"limit" binding:"omitempty,min=1,max=100"`
	Search    string `form:"search"`
	Source    string `form:"source"`
	Direction string `form:"direction" binding:"omitempty,oneof=entry exit"`
}

func (h *Handler) listDetections(c *gin.Context) {
	var q listDetectionsQuery
	if !bindQuery(c, &q) {
		return
	}

	page, limit := service.DefaultPage, service.DefaultLimit
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}

	result, err := h.detectionService.List(c.Request.Context(), platewatch.DetectionFilter{
		Search:    strings.TrimSpace(q.Search),
		Source:    strings.TrimSpace(q.Source),
		Direction: platewatch.Direction(q.Direction),
	}, page, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getDetection(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Detection not found"))
		return
	}

	det, err := h.detectionService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Detection not found"))
			return
		}
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, det)
}

type createDetectionRequest struct {
	Plate      string   `json:"plate" binding:"required,min=4,max=12,plate"`
	Confidence *float64 `json:"confidence" binding:"required,min=0,max=100"`
	Source     string   `json:"source" binding:"required,min=2,max=64"`
	Direction  string   `json:"direction" binding:"omitempty,oneof=entry exit"`
	ImageURL   *string  `json:"imageUrl" binding:"omitempty,url"`
	CapturedAt *string  `json:"capturedAt" binding:"omitempty,isodatetime"`
}

func (h *Handler) createDetection(c *gin.Context) {
	var req createDetectionRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.CreateDetectionInput{
		Plate:      req.Plate,
		Confidence: *req.Confidence,
		Source:     req.Source,
		Direction:  platewatch.Direction(req.Direction),
		ImageURL:   req.ImageURL,
	}
	if req.CapturedAt != nil {
		in.CapturedAt = *req.CapturedAt
	}

	det, err := h.detectionService.Create(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, det)
}

func (h *Handler) getSummary(c *gin.Context) {
	summary, err := h.detectionService.Summary(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type saveUploadRequest struct {
	FileName    string `json:"fileName" binding:"required,min=1"`
	ContentType string `json:"contentType"`
	DataURL     string `json:"dataUrl" binding:"required"`
}

func (h *Handler) listUploads(c *gin.Context) {
	records, err := h.uploadService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) saveUpload(c *gin.Context) {
	var req saveUploadRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.uploadService.Save(c.Request.Context(), service.SaveUploadInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		DataURL:     req.DataURL,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
