package ui

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bioprep/domain/core"
	"bioprep/domain/experiment"
	"bioprep/domain/request"
	"bioprep/domain/wizard"
	apperrors "bioprep/internal/errors"
)

type folderRequest struct {
	Path string `json:"path" binding:"required"`
}

type subjectsRequest struct {
	Subjects []core.SubjectID `json:"subjects"`
}

type metricsRequest struct {
	Metrics []string `json:"metrics"`
}

type eventWindowsRequest struct {
	EventWindows []request.EventWindow `json:"event_windows"`
}

type methodRequest struct {
	AnalysisMethod string `json:"analysis_method" binding:"required"`
}

type plotRequest struct {
	PlotType string `json:"plot_type" binding:"required"`
}

type mappingRequest struct {
	Subject  core.SubjectID        `json:"subject" binding:"required"`
	Filename string                `json:"filename" binding:"required"`
	Mapping  request.ColumnMapping `json:"mapping"`
}

type pulseFlagRequest struct {
	UploadPulseFlag bool `json:"upload_pulse_flag"`
}

type jumpRequest struct {
	Index int `json:"index"`
}

type saveFiguresRequest struct {
	Directory string `json:"directory" binding:"required"`
}

func (s *Server) handleSelectFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.session.SelectFolder(c.Request.Context(), req.Path); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondWizardState(c)
}

func (s *Server) handleStructure(c *gin.Context) {
	structure := s.session.Structure()
	if structure == nil {
		s.respondError(c, core.ErrScanRequired)
		return
	}
	c.JSON(http.StatusOK, structure)
}

func (s *Server) handleAvailability(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Availability())
}

func (s *Server) handleExperiments(c *gin.Context) {
	mode := experiment.ModeIntersection
	if c.Query("mode") == string(experiment.ModeUnion) {
		mode = experiment.ModeUnion
	}
	c.JSON(http.StatusOK, s.session.ExperimentGroups(mode))
}

func (s *Server) handleSetSubjects(c *gin.Context) {
	var req subjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.session.SetSubjects(req.Subjects); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Availability())
}

// applyDraftChange finishes a configuration-setter handler: session errors
// map through respondError, success returns a bare 200.
func (s *Server) applyDraftChange(c *gin.Context, err error) {
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSetMetrics(c *gin.Context) {
	var req metricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.applyDraftChange(c, s.session.SetMetrics(req.Metrics))
}

func (s *Server) handleSetEventWindows(c *gin.Context) {
	var req eventWindowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.applyDraftChange(c, s.session.SetEventWindows(req.EventWindows))
}

func (s *Server) handleSetMethod(c *gin.Context) {
	var req methodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.applyDraftChange(c, s.session.SetAnalysisMethod(req.AnalysisMethod))
}

func (s *Server) handleSetPlotType(c *gin.Context) {
	var req plotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.applyDraftChange(c, s.session.SetPlotType(req.PlotType))
}

func (s *Server) handleSetColumnMapping(c *gin.Context) {
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.applyDraftChange(c, s.session.SetColumnMapping(req.Subject, req.Filename, req.Mapping))
}

func (s *Server) handleSetPulseFlag(c *gin.Context) {
	var req pulseFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.session.SetUploadPulseFlag(req.UploadPulseFlag); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Availability())
}

func (s *Server) handleWizardNext(c *gin.Context) {
	if _, err := s.session.GoNext(); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondWizardState(c)
}

func (s *Server) handleWizardPrevious(c *gin.Context) {
	if _, err := s.session.GoPrevious(); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondWizardState(c)
}

func (s *Server) handleWizardJump(c *gin.Context) {
	var req jumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := s.session.JumpTo(req.Index); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondWizardState(c)
}

func (s *Server) handleIssues(c *gin.Context) {
	issues := s.session.Issues()
	flat := make([]string, len(issues))
	for i, issue := range issues {
		flat[i] = string(issue)
	}
	c.JSON(http.StatusOK, gin.H{"issues": flat, "can_submit": len(flat) == 0})
}

func (s *Server) handleSubmit(c *gin.Context) {
	result, err := s.session.SubmitAnalysis(c.Request.Context())
	if err != nil {
		if errors.Is(err, core.ErrConfigurationInvalid) {
			issues := s.session.Issues()
			flat := make([]string, len(issues))
			for i, issue := range issues {
				flat[i] = string(issue)
			}
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "issues": flat})
			return
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSaveFigures(c *gin.Context) {
	var req saveFiguresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := s.session.SaveFigures(c.Request.Context(), req.Directory)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

func (s *Server) respondWizardState(c *gin.Context) {
	step, index, count := s.session.Wizard()
	c.JSON(http.StatusOK, gin.H{
		"step":       step,
		"index":      index,
		"step_count": count,
		"review":     step == wizard.StepReview,
	})
}

// respondError maps domain and transport errors onto HTTP statuses. Nothing
// here is fatal to the session; the client shows the message and carries on.
func (s *Server) respondError(c *gin.Context, err error) {
	s.logger.Warn("request failed: %v", err)

	status := http.StatusInternalServerError
	switch {
	case core.IsDiscoveryError(err), errors.Is(err, core.ErrScanRequired):
		status = http.StatusBadRequest
	case apperrors.GetCode(err) == apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.GetCode(err) == apperrors.CodeExternalService:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
