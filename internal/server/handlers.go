package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/dermascan"
	"github.com/menta2k/dermascan/pkg/annotate"
	"github.com/menta2k/dermascan/pkg/library"
	"github.com/menta2k/dermascan/pkg/processing"
	"github.com/menta2k/dermascan/pkg/types"
)

// DetectRequest is the body of POST /api/detect. Credentials left empty fall
// back to the server's configuration. Local server addresses come only from
// configuration.
type DetectRequest struct {
	Image           string `json:"image"`
	Provider        string `json:"provider"`
	RoboflowAPIKey  string `json:"roboflowApiKey"`
	RoboflowModelID string `json:"roboflowModelId"`
	GeminiAPIKey    string `json:"geminiApiKey"`
}

// AnnotateRequest is the body of POST /api/annotate
type AnnotateRequest struct {
	Image          string             `json:"image"`
	Predictions    []types.LabeledBox `json:"predictions"`
	ImageWidth     int                `json:"imageWidth"`
	ImageHeight    int                `json:"imageHeight"`
	ContainerWidth float64            `json:"containerWidth"`
	Zoom           float64            `json:"zoom"`
	Format         string             `json:"format"`
}

func (s *Server) providerConfig(req DetectRequest) types.ProviderConfig {
	pc := s.cfg.Providers.Provider(req.Provider)
	if req.RoboflowAPIKey != "" {
		pc.Detector.APIKey = req.RoboflowAPIKey
	}
	if req.RoboflowModelID != "" {
		pc.Detector.ModelID = req.RoboflowModelID
	}
	if req.GeminiAPIKey != "" {
		pc.Generative.APIKey = req.GeminiAPIKey
	}
	return pc
}

func (s *Server) handleDetect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("bad detect body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrAnalyzeFailed})
		return
	}
	if req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrNoImage})
		return
	}

	detReq, err := dermascan.RequestFromDataURL(req.Image, s.providerConfig(req))
	if err != nil {
		s.logger.Warn("undecodable image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrAnalyzeFailed})
		return
	}

	det, err := s.svc.Detect(c.Request.Context(), detReq)
	if err != nil {
		s.logger.Error("detection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrAnalyzeFailed})
		return
	}
	c.JSON(http.StatusOK, det)
}

func (s *Server) handleAnnotate(c *gin.Context) {
	var req AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrNoImage})
		return
	}

	data, _, err := processing.ParseDataURL(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidImage})
		return
	}
	img, err := s.svc.Decode(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidImage})
		return
	}

	out, legend, err := s.svc.Annotate(img, req.Predictions, annotate.Options{
		ContainerWidth: req.ContainerWidth,
		Zoom:           annotate.Zoom(req.Zoom),
		ImageWidth:     req.ImageWidth,
		ImageHeight:    req.ImageHeight,
	})
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrRenderFailed})
		return
	}

	format := req.Format
	if format == "" {
		format = s.cfg.Render.Format
	}
	var buf bytes.Buffer
	if err := s.svc.Encode(&buf, out, format, s.cfg.Render.Quality); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	legendJSON, err := json.Marshal(legend)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrRenderFailed})
		return
	}
	c.Header(LegendHeader, string(legendJSON))
	c.Data(http.StatusOK, processing.MIMEType(format), buf.Bytes())
}

func (s *Server) handleLibrary(c *gin.Context) {
	c.JSON(http.StatusOK, library.All())
}

func (s *Server) handleMatch(c *gin.Context) {
	label := c.Query("label")
	if label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrNoLabel})
		return
	}
	info, ok := library.Match(label)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrNoMatch})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleDisease(c *gin.Context) {
	info, ok := library.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrUnknownDisease})
		return
	}
	c.JSON(http.StatusOK, info)
}
