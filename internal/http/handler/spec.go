package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"specforge.app/specforge/internal/http/dto"
	"specforge.app/specforge/internal/pipeline"
	"specforge.app/specforge/internal/schema"
	"specforge.app/specforge/internal/specerr"
)

// Generator runs one non-interactive generation.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

type SpecHandler struct {
	generator Generator
}

func NewSpecHandler(generator Generator) *SpecHandler {
	return &SpecHandler{generator: generator}
}

// Create handles POST /api/v1/specs. The HTTP surface has no follow-up
// channel, so generation always runs non-interactive: unresolved fields
// come back as 422 naming the gaps instead of a question.
func (h *SpecHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateSpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	format := req.Format
	if format == "" {
		format = "markdown"
	}
	if format != "markdown" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be \"markdown\" or \"json\""})
		return
	}

	outcome, err := h.generator.Generate(ctx, pipeline.Request{
		Prompt:      req.Prompt,
		Interactive: false,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := dto.GenerateSpecResponse{
		RunID:          strconv.FormatInt(outcome.RunID, 10),
		Format:         format,
		QuestionsAsked: outcome.QuestionsAsked,
	}
	if format == "json" {
		structured := outcome.Document.Structured()
		resp.Document = &structured
	} else {
		resp.Markdown = outcome.Markdown
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SpecHandler) writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var missing *specerr.MissingFieldsError
	if errors.As(err, &missing) {
		labels := make([]string, len(missing.Fields))
		for i, key := range missing.Fields {
			def, _ := schema.Lookup(key)
			labels[i] = def.Label
		}
		c.JSON(http.StatusUnprocessableEntity, dto.MissingFieldsResponse{
			Error:         "missing required information",
			MissingFields: labels,
		})
		return
	}

	if errors.Is(err, specerr.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slog.ErrorContext(ctx, "spec generation failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "spec generation failed"})
}
