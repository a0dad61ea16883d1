package keystore_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"specforge.app/specforge/internal/keystore"
)

var _ = Describe("Store", func() {
	var (
		dir   string
		store *keystore.Store
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "keystore-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
		store = keystore.New(dir)
	})

	It("returns an empty config when no file exists", func() {
		cfg := store.Load()
		Expect(cfg.APIKeys).To(BeEmpty())
		Expect(store.APIKey("openai")).To(BeEmpty())
	})

	It("round-trips keys through the config file", func() {
		Expect(store.SetAPIKey("openai", "sk-test-123")).To(Succeed())
		Expect(store.SetAPIKey("anthropic", "sk-ant-test-456")).To(Succeed())

		Expect(store.APIKey("openai")).To(Equal("sk-test-123"))
		Expect(store.APIKey("anthropic")).To(Equal("sk-ant-test-456"))
		Expect(store.Providers()).To(Equal([]string{"anthropic", "openai"}))
	})

	It("restricts file permissions on the stored config", func() {
		Expect(store.SetAPIKey("openai", "sk-test-123")).To(Succeed())

		info, err := os.Stat(filepath.Join(dir, ".specforge", "config.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})

	It("treats an unparsable config file as empty", func() {
		path := filepath.Join(dir, ".specforge", "config.json")
		Expect(os.MkdirAll(filepath.Dir(path), 0o700)).To(Succeed())
		Expect(os.WriteFile(path, []byte("not json"), 0o600)).To(Succeed())

		Expect(store.Load().APIKeys).To(BeEmpty())
	})
})

var _ = Describe("ValidKeyFormat", func() {
	DescribeTable("checks provider key prefixes",
		func(provider, key string, valid bool) {
			Expect(keystore.ValidKeyFormat(provider, key)).To(Equal(valid))
		},
		Entry("openai key", "openai", "sk-abc123", true),
		Entry("openai key with whitespace", "openai", "  sk-abc123  ", true),
		Entry("openai wrong prefix", "openai", "pk-abc123", false),
		Entry("anthropic key", "anthropic", "sk-ant-abc123", true),
		Entry("empty key", "openai", "   ", false),
		Entry("unknown provider", "cohere", "sk-abc123", false),
	)
})
