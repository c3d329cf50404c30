package ui

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed help/*.md
var helpFiles embed.FS

// handleHelp renders the embedded help text for one wizard step as HTML
func (s *Server) handleHelp(c *gin.Context) {
	step := c.Param("step")
	raw, err := helpFiles.ReadFile("help/" + step + ".md")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no help for step " + step})
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	c.Data(http.StatusOK, "text/html; charset=utf-8", markdown.ToHTML(raw, p, renderer))
}
