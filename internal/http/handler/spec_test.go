package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"specforge.app/specforge/internal/http/handler"
	"specforge.app/specforge/internal/http/router"
	"specforge.app/specforge/internal/pipeline"
	"specforge.app/specforge/internal/render"
	"specforge.app/specforge/internal/schema"
	"specforge.app/specforge/internal/specerr"
)

func sampleOutcome() *pipeline.Outcome {
	doc, err := render.NewDocument(map[schema.FieldKey]string{
		schema.FieldProjectName: "CSVCheck",
		schema.FieldProjectType: "CLI tool",
		schema.FieldPrimaryGoal: "validate CSV files against a schema",
		schema.FieldTargetUsers: "data engineers",
		schema.FieldInputs:      "CSV files",
		schema.FieldOutputs:     "validation report",
		schema.FieldConstraints: "must run offline",
		schema.FieldNonGoals:    "no GUI",
	}, nil)
	Expect(err).NotTo(HaveOccurred())
	return &pipeline.Outcome{
		RunID:    12345,
		Document: doc,
		Markdown: doc.Markdown(),
	}
}

var _ = Describe("SpecHandler", func() {
	var (
		engine    *gin.Engine
		generator *mockGenerator
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		generator = &mockGenerator{}
		router.SetupRoutes(engine, handler.NewSpecHandler(generator))
	})

	post := func(body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/specs", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	Describe("Create", func() {
		It("returns 201 with the markdown document by default", func() {
			generator.generateFn = func(_ context.Context, req pipeline.Request) (*pipeline.Outcome, error) {
				Expect(req.Interactive).To(BeFalse())
				Expect(req.Prompt).To(Equal("Build a CLI tool"))
				return sampleOutcome(), nil
			}

			w := post(map[string]string{"prompt": "Build a CLI tool"})
			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["run_id"]).To(Equal("12345"))
			Expect(resp["format"]).To(Equal("markdown"))
			Expect(resp["markdown"]).To(ContainSubstring("# Project Specification"))
			Expect(resp).NotTo(HaveKey("document"))
		})

		It("returns the structured document when format is json", func() {
			generator.generateFn = func(_ context.Context, _ pipeline.Request) (*pipeline.Outcome, error) {
				return sampleOutcome(), nil
			}

			w := post(map[string]string{"prompt": "Build a CLI tool", "format": "json"})
			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			document, ok := resp["document"].(map[string]any)
			Expect(ok).To(BeTrue())
			overview, ok := document["overview"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(overview["project_name"]).To(Equal("CSVCheck"))
			Expect(resp).NotTo(HaveKey("markdown"))
		})

		It("returns 400 when the prompt is absent", func() {
			w := post(map[string]string{})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for an unsupported format", func() {
			w := post(map[string]string{"prompt": "x", "format": "pdf"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when generation rejects the input", func() {
			generator.generateFn = func(_ context.Context, _ pipeline.Request) (*pipeline.Outcome, error) {
				return nil, fmt.Errorf("%w: prompt is required and must be non-empty", specerr.ErrInvalidInput)
			}

			w := post(map[string]string{"prompt": "   "})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 422 with the missing field labels", func() {
			generator.generateFn = func(_ context.Context, _ pipeline.Request) (*pipeline.Outcome, error) {
				return nil, &specerr.MissingFieldsError{Fields: []schema.FieldKey{
					schema.FieldTargetUsers, schema.FieldNonGoals,
				}}
			}

			w := post(map[string]string{"prompt": "partial prompt"})
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["missing_fields"]).To(Equal([]any{"target users", "non-goals"}))
		})

		It("returns 500 without leaking internals on unexpected errors", func() {
			generator.generateFn = func(_ context.Context, _ pipeline.Request) (*pipeline.Outcome, error) {
				return nil, fmt.Errorf("pq: connection refused")
			}

			w := post(map[string]string{"prompt": "x"})
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring("connection refused"))
		})
	})

	Describe("health", func() {
		It("responds ok", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})
})
