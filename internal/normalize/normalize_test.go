package normalize_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/normalize"
	"specforge.app/specforge/internal/schema"
)

func resolvedFields() model.FieldSet {
	return model.FieldSet{
		schema.FieldProjectName: {Value: "CSVCheck", Confidence: 0.95},
		schema.FieldProjectType: {Value: "cli tool", Confidence: 0.9},
		schema.FieldPrimaryGoal: {Value: "give devs a blazingly fast validator", Confidence: 0.9},
		schema.FieldTargetUsers: {Value: "the people using it daily", Confidence: 0.9},
		schema.FieldInputs:      {Value: "CSV files, config files", Confidence: 0.9},
		schema.FieldOutputs:     {Value: "a user-friendly report", Confidence: 0.9},
		schema.FieldConstraints: {Value: "must stay very simple and offline", Confidence: 0.9},
		schema.FieldNonGoals:    {Value: "no GUI", Confidence: 0.9},
	}
}

var _ = Describe("Normalizer", func() {
	var (
		ctx  context.Context
		prov *mockProvider
		n    *normalize.Normalizer
	)

	BeforeEach(func() {
		ctx = context.Background()
		prov = &mockProvider{}
		n = normalize.New(prov)
	})

	It("collapses synonyms onto the controlled vocabulary", func() {
		result := n.Normalize(ctx, resolvedFields())

		Expect(result.Values[schema.FieldPrimaryGoal]).To(ContainSubstring("developers"))
		Expect(result.Values[schema.FieldPrimaryGoal]).NotTo(ContainSubstring("devs"))
		Expect(result.Values[schema.FieldTargetUsers]).To(ContainSubstring("end users"))
		Expect(result.Values[schema.FieldInputs]).To(ContainSubstring("configuration files"))
	})

	It("replaces subjective qualifiers with falsifiable phrasing", func() {
		result := n.Normalize(ctx, resolvedFields())

		Expect(result.Values[schema.FieldPrimaryGoal]).To(ContainSubstring("within the stated performance constraints"))
		Expect(result.Values[schema.FieldPrimaryGoal]).NotTo(ContainSubstring("blazingly"))
		Expect(result.Values[schema.FieldOutputs]).To(ContainSubstring("usable without documentation"))
		Expect(result.Values[schema.FieldConstraints]).NotTo(ContainSubstring("very"))
		Expect(result.Values[schema.FieldConstraints]).NotTo(ContainSubstring("simple"))
	})

	It("canonicalizes the project type spelling without prose rewriting", func() {
		result := n.Normalize(ctx, resolvedFields())
		Expect(result.Values[schema.FieldProjectType]).To(Equal("CLI tool"))
	})

	It("is deterministic and a fixed point", func() {
		first := n.Normalize(ctx, resolvedFields())
		second := n.Normalize(ctx, resolvedFields())
		Expect(second.Values).To(Equal(first.Values))

		// Re-normalizing already-normalized values changes nothing.
		renormalized := make(model.FieldSet, len(first.Values))
		for key, value := range first.Values {
			renormalized[key] = model.FieldCandidate{Value: value, Confidence: 1.0}
		}
		third := n.Normalize(ctx, renormalized)
		Expect(third.Values).To(Equal(first.Values))
	})

	It("passes all fields through flagged when the provider fails", func() {
		prov.normalizeFn = func(_ context.Context, _ map[schema.FieldKey]string) (map[schema.FieldKey]string, error) {
			return nil, fmt.Errorf("provider unavailable")
		}

		result := n.Normalize(ctx, resolvedFields())
		Expect(result.Flagged).To(HaveLen(8))
		// Values survive; the deterministic pass still applies.
		Expect(result.Values[schema.FieldNonGoals]).To(Equal("no GUI"))
		Expect(result.Values[schema.FieldProjectType]).To(Equal("CLI tool"))
	})

	It("keeps the original value when the provider blanks a field", func() {
		prov.normalizeFn = func(_ context.Context, values map[schema.FieldKey]string) (map[schema.FieldKey]string, error) {
			out := make(map[schema.FieldKey]string, len(values))
			for key, value := range values {
				out[key] = value
			}
			out[schema.FieldNonGoals] = "  "
			return out, nil
		}

		result := n.Normalize(ctx, resolvedFields())
		Expect(result.Flagged).To(Equal([]schema.FieldKey{schema.FieldNonGoals}))
		Expect(result.Values[schema.FieldNonGoals]).To(Equal("no GUI"))
	})

	It("rejects a provider-normalized project type outside the enum", func() {
		prov.normalizeFn = func(_ context.Context, values map[schema.FieldKey]string) (map[schema.FieldKey]string, error) {
			out := make(map[schema.FieldKey]string, len(values))
			for key, value := range values {
				out[key] = value
			}
			out[schema.FieldProjectType] = "command thing"
			return out, nil
		}

		result := n.Normalize(ctx, resolvedFields())
		Expect(result.Flagged).To(Equal([]schema.FieldKey{schema.FieldProjectType}))
		Expect(result.Values[schema.FieldProjectType]).To(Equal("CLI tool"))
	})
})
