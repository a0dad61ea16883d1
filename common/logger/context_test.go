package logger_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"specforge.app/specforge/common/logger"
)

var _ = Describe("LogFields", func() {
	It("returns empty fields from an unenriched context", func() {
		fields := logger.GetLogFields(context.Background())
		Expect(fields.RunID).To(BeNil())
		Expect(fields.Component).To(BeEmpty())
	})

	It("merges fields across calls with newer values winning", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			RunID:     logger.Ptr(int64(7)),
			Component: "specforge.pipeline",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			Stage: logger.Ptr("extract"),
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			Stage:     logger.Ptr("resolve"),
			Component: "specforge.resolve",
		})

		fields := logger.GetLogFields(ctx)
		Expect(*fields.RunID).To(Equal(int64(7)))
		Expect(*fields.Stage).To(Equal("resolve"))
		Expect(fields.Component).To(Equal("specforge.resolve"))
	})

	It("keeps existing values when the incoming field is unset", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			Mode: logger.Ptr("interactive"),
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{})

		Expect(*logger.GetLogFields(ctx).Mode).To(Equal("interactive"))
	})
})

var _ = Describe("Truncate", func() {
	It("leaves short strings untouched", func() {
		Expect(logger.Truncate("short prompt", 120)).To(Equal("short prompt"))
	})

	It("truncates long strings with an ellipsis marker", func() {
		long := "Build a CLI tool that validates CSV files against a schema"
		Expect(logger.Truncate(long, 10)).To(Equal("Build a CL..."))
	})

	It("keeps a string exactly at the limit", func() {
		Expect(logger.Truncate("abcde", 5)).To(Equal("abcde"))
	})
})
