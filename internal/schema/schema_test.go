package schema_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"specforge.app/specforge/internal/schema"
)

var _ = Describe("Fields", func() {
	It("returns the eight required fields in declaration order", func() {
		keys := schema.Keys()
		Expect(keys).To(Equal([]schema.FieldKey{
			schema.FieldProjectName,
			schema.FieldProjectType,
			schema.FieldPrimaryGoal,
			schema.FieldTargetUsers,
			schema.FieldInputs,
			schema.FieldOutputs,
			schema.FieldConstraints,
			schema.FieldNonGoals,
		}))
	})

	It("marks only project_type as a closed enum", func() {
		for _, def := range schema.Fields() {
			if def.Key == schema.FieldProjectType {
				Expect(def.Domain).To(Equal(schema.DomainClosedEnum))
				Expect(def.Enum).To(Equal(schema.ProjectTypes))
			} else {
				Expect(def.Domain).To(Equal(schema.DomainFreeText))
				Expect(def.Enum).To(BeEmpty())
			}
		}
	})
})

var _ = Describe("Lookup", func() {
	It("finds known fields", func() {
		def, ok := schema.Lookup(schema.FieldTargetUsers)
		Expect(ok).To(BeTrue())
		Expect(def.Label).To(Equal("target users"))
	})

	It("rejects unknown keys", func() {
		_, ok := schema.Lookup("budget")
		Expect(ok).To(BeFalse())
		Expect(schema.Known("budget")).To(BeFalse())
	})
})

var _ = Describe("ValidateValue", func() {
	It("accepts any non-empty value for free-text fields", func() {
		Expect(schema.ValidateValue(schema.FieldPrimaryGoal, "validate CSV files")).To(Succeed())
	})

	It("rejects empty values", func() {
		Expect(schema.ValidateValue(schema.FieldPrimaryGoal, "")).To(HaveOccurred())
	})

	It("rejects unknown fields", func() {
		Expect(schema.ValidateValue("budget", "x")).To(HaveOccurred())
	})

	It("requires exact enum members for project_type", func() {
		Expect(schema.ValidateValue(schema.FieldProjectType, "CLI tool")).To(Succeed())
		Expect(schema.ValidateValue(schema.FieldProjectType, "cli tool")).To(HaveOccurred())
		Expect(schema.ValidateValue(schema.FieldProjectType, "mobile app")).To(HaveOccurred())
	})
})

var _ = Describe("CanonicalProjectType", func() {
	DescribeTable("matches enum members ignoring case",
		func(input, expected string, ok bool) {
			canonical, matched := schema.CanonicalProjectType(input)
			Expect(matched).To(Equal(ok))
			Expect(canonical).To(Equal(expected))
		},
		Entry("exact member", "CLI tool", "CLI tool", true),
		Entry("lowercase member", "cli tool", "CLI tool", true),
		Entry("uppercase member", "LIBRARY", "library", true),
		Entry("outside the domain", "mobile app", "", false),
		Entry("empty", "", "", false),
	)
})
