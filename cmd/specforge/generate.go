package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"specforge.app/specforge/common/id"
	"specforge.app/specforge/common/llm"
	"specforge.app/specforge/common/logger"
	"specforge.app/specforge/core/config"
	"specforge.app/specforge/internal/keystore"
	"specforge.app/specforge/internal/pipeline"
	"specforge.app/specforge/internal/provider"
	"specforge.app/specforge/internal/resolve"
	"specforge.app/specforge/internal/schema"
	"specforge.app/specforge/internal/specerr"
	"specforge.app/specforge/internal/telemetry"
)

type generateOptions struct {
	prompt      string
	output      string
	asJSON      bool
	interactive bool
	useLLM      bool
	model       string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a specification document from a prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			logger.Setup(cfg)
			if err := id.Init(1); err != nil {
				return fmt.Errorf("init id generator: %w", err)
			}
			return runGenerate(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "Initial user prompt")
	cmd.Flags().StringVar(&opts.output, "output", "./SPEC.md", "Output file path")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Emit the structured JSON form instead of markdown")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", true, "Ask follow-up questions for missing fields")
	cmd.Flags().BoolVar(&opts.useLLM, "use-llm", false, "Use LLM-based extraction, follow-ups and normalization")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (only with --use-llm)")

	return cmd
}

func runGenerate(ctx context.Context, cfg config.Config, opts generateOptions) error {
	started := time.Now().UTC()
	runID := id.New()

	mode := "non-interactive"
	if opts.interactive {
		mode = "interactive"
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Mode: logger.Ptr(mode)})

	var sink telemetry.Sink = telemetry.Nop{}
	if cfg.Telemetry.Enabled() {
		sink = telemetry.NewJSONLSink(cfg.Telemetry.Dir)
	}

	prov, err := buildProvider(cfg, opts, sink, runID)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(prov)
	outcome, genErr := runner.Generate(ctx, pipeline.Request{
		RunID:       runID,
		Prompt:      opts.prompt,
		Interactive: opts.interactive,
		Ask:         stdinAsker(),
	})

	summary := telemetry.RunSummary{
		RunID:      runID,
		Timestamp:  started,
		Mode:       mode,
		OutputPath: opts.output,
		Result:     "success",
		ExitCode:   specerr.ExitCode(genErr),
	}
	if genErr != nil {
		summary.Result = "error"
	}
	if outcome != nil {
		summary.QuestionsAsked = outcome.QuestionsAsked
	}
	sink.LogRun(summary)

	if genErr != nil {
		return genErr
	}

	content := outcome.Markdown
	if opts.asJSON {
		content, err = outcome.Document.JSON()
		if err != nil {
			return fmt.Errorf("encoding document: %w", err)
		}
	}

	if err := writeOutput(opts.output, content); err != nil {
		return err
	}
	fmt.Printf("Generated: %s\n", opts.output)
	return nil
}

// buildProvider selects the local heuristics or an LLM-backed provider.
// The API key resolves from the environment first, then the keystore.
func buildProvider(cfg config.Config, opts generateOptions, sink telemetry.Sink, runID int64) (provider.Provider, error) {
	if !opts.useLLM {
		return provider.NewLocal(), nil
	}

	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = keystore.New(".").APIKey(cfg.LLM.Provider)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for provider %q: set LLM_API_KEY or run `specforge keys set %s`",
			cfg.LLM.Provider, cfg.LLM.Provider)
	}

	model := opts.model
	if model == "" {
		model = cfg.LLM.Model
	}

	client, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   apiKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}
	return provider.NewLLM(client, sink, runID), nil
}

// stdinAsker prints each follow-up question and blocks for one line of
// input. End of input aborts the session.
func stdinAsker() pipeline.AskFunc {
	reader := bufio.NewReader(os.Stdin)
	return func(_ context.Context, question resolve.Question) (string, error) {
		fmt.Printf("%s\n> ", question.Text)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
}

func writeOutput(path, content string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// errorMessage formats an escalated error for stderr, matching the exit
// code taxonomy.
func errorMessage(err error) string {
	var missing *specerr.MissingFieldsError
	if errors.As(err, &missing) {
		return "Missing required information: " + joinLabels(missing)
	}
	if errors.Is(err, specerr.ErrInvalidInput) {
		return "Invalid input: " + strings.TrimPrefix(err.Error(), specerr.ErrInvalidInput.Error()+": ")
	}
	return "Internal error: " + err.Error()
}

func joinLabels(missing *specerr.MissingFieldsError) string {
	labels := make([]string, len(missing.Fields))
	for i, key := range missing.Fields {
		def, _ := schema.Lookup(key)
		labels[i] = def.Label
	}
	return strings.Join(labels, ", ")
}
