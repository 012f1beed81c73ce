package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/omnikernel/internal/model"
	"github.com/ppiankov/omnikernel/internal/pipeline"
	"github.com/ppiankov/omnikernel/internal/speech"
)

const headerNarrationCached = "X-Narration-Cached"

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// runAnalysis binds the prompt and analyzes it, writing the error response on failure
func (s *Server) runAnalysis(c *gin.Context) (*model.Analysis, bool) {
	var req analyzeRequest
	// An empty body is a missing prompt, not malformed JSON
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid JSON body: %w", err))
		return nil, false
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	analysis, err := s.pipeline.Analyze(ctx, req.Prompt)
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		respondError(c, http.StatusBadRequest, "empty_prompt", errors.New(pipeline.EmptyInputMessage))
		return nil, false
	case err != nil:
		respondError(c, http.StatusInternalServerError, "analysis_failed", err)
		return nil, false
	}
	return analysis, true
}

func (s *Server) analyze(c *gin.Context) {
	analysis, ok := s.runAnalysis(c)
	if !ok {
		return
	}
	c.PureJSON(http.StatusOK, analysis)
}

func (s *Server) download(c *gin.Context) {
	analysis, ok := s.runAnalysis(c)
	if !ok {
		return
	}

	data, err := pipeline.MarshalReport(analysis.Report)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pipeline.ReportFilename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) speech(c *gin.Context) {
	if !s.pipeline.NarrationEnabled() {
		respondError(c, http.StatusServiceUnavailable, "speech_disabled", speech.ErrDisabled)
		return
	}

	analysis, ok := s.runAnalysis(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.pipeline.Narrate(ctx, analysis, ""); err != nil {
		respondError(c, http.StatusBadGateway, "speech_failed", err)
		return
	}

	c.Header(headerNarrationCached, strconv.FormatBool(analysis.Narration.Cached))
	c.Data(http.StatusOK, "audio/mpeg", analysis.Narration.Audio)
}

func (s *Server) lexicon(c *gin.Context) {
	c.PureJSON(http.StatusOK, gin.H{"rules": s.pipeline.Decoder().Rules()})
}
