package dto

import "specforge.app/specforge/internal/render"

type GenerateSpecRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Format string `json:"format"` // "markdown" (default) or "json"
}

type GenerateSpecResponse struct {
	RunID          string               `json:"run_id"`
	Format         string               `json:"format"`
	Markdown       string               `json:"markdown,omitempty"`
	Document       *render.JSONDocument `json:"document,omitempty"`
	QuestionsAsked int                  `json:"questions_asked"`
}

type MissingFieldsResponse struct {
	Error         string   `json:"error"`
	MissingFields []string `json:"missing_fields"`
}
