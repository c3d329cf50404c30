package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bioprep/internal"
	"bioprep/internal/config"
	"bioprep/internal/session"
)

// Server exposes one wizard session over JSON endpoints. Presentation lives
// elsewhere; this surface only moves session state in and out.
type Server struct {
	router  *gin.Engine
	session *session.Session
	logger  *internal.Logger
}

// NewServer creates the web server around one session
func NewServer(cfg *config.Config, sess *session.Session, logger *internal.Logger) *Server {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:  gin.Default(),
		session: sess,
		logger:  logger.WithComponent("UI"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	api.POST("/folder", s.handleSelectFolder)
	api.GET("/structure", s.handleStructure)
	api.GET("/availability", s.handleAvailability)
	api.GET("/experiments", s.handleExperiments)

	api.PUT("/config/subjects", s.handleSetSubjects)
	api.PUT("/config/metrics", s.handleSetMetrics)
	api.PUT("/config/events", s.handleSetEventWindows)
	api.PUT("/config/method", s.handleSetMethod)
	api.PUT("/config/plot", s.handleSetPlotType)
	api.PUT("/config/mapping", s.handleSetColumnMapping)
	api.PUT("/config/pulse-flag", s.handleSetPulseFlag)

	api.POST("/wizard/next", s.handleWizardNext)
	api.POST("/wizard/previous", s.handleWizardPrevious)
	api.POST("/wizard/jump", s.handleWizardJump)
	api.GET("/issues", s.handleIssues)

	api.POST("/submit", s.handleSubmit)
	api.POST("/figures/save", s.handleSaveFigures)
	api.GET("/help/:step", s.handleHelp)
}

// Start runs the server on addr, blocking until it exits
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}
