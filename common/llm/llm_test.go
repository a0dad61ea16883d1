package llm_test

import (
	"context"
	"encoding/json"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"specforge.app/specforge/common/llm"
)

type samplePayload struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

var _ = Describe("New", func() {
	It("requires an API key", func() {
		_, err := llm.New(llm.Config{Provider: llm.ProviderOpenAI})
		Expect(err).To(MatchError(ContainSubstring("API key")))
	})

	It("rejects unsupported providers", func() {
		_, err := llm.New(llm.Config{Provider: "cohere", APIKey: "key"})
		Expect(err).To(MatchError(ContainSubstring("unsupported")))
	})

	It("defaults to OpenAI when no provider is set", func() {
		client, err := llm.New(llm.Config{APIKey: "sk-test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4o-mini"))
	})

	It("creates an Anthropic client with its default model", func() {
		client, err := llm.New(llm.Config{Provider: llm.ProviderAnthropic, APIKey: "sk-ant-test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("claude-sonnet-4-5"))
	})

	It("honors an explicit model name", func() {
		client, err := llm.New(llm.Config{APIKey: "sk-test", Model: "gpt-5-mini"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-5-mini"))
	})
})

var _ = Describe("GenerateSchema", func() {
	It("produces a strict object schema without references", func() {
		schema := llm.GenerateSchema[samplePayload]()

		raw, err := json.Marshal(schema)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
		Expect(decoded["type"]).To(Equal("object"))
		Expect(decoded["additionalProperties"]).To(Equal(false))

		properties, ok := decoded["properties"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(properties).To(HaveKey("value"))
		Expect(properties).To(HaveKey("confidence"))
	})
})

var _ = Describe("Temp", func() {
	It("returns a pointer to the given temperature", func() {
		t := llm.Temp(0)
		Expect(t).NotTo(BeNil())
		Expect(*t).To(Equal(0.0))
	})
})

var _ = Describe("IsRetryable", func() {
	It("does not retry cancelled contexts", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(llm.IsRetryable(ctx, context.Canceled)).To(BeFalse())
	})

	It("retries generic network errors", func() {
		Expect(llm.IsRetryable(context.Background(), fmt.Errorf("connection reset"))).To(BeTrue())
	})

	It("does not retry nil errors", func() {
		Expect(llm.IsRetryable(context.Background(), nil)).To(BeFalse())
	})
})
