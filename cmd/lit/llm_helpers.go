package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/litreview/lit/internal/config"
	"github.com/litreview/lit/internal/export"
	"github.com/litreview/lit/internal/llm"
)

// newLLMClient builds the chat-completion client, exiting with
// ExitConfigError when no API key is configured.
func newLLMClient(settings *config.Settings, model string) *llm.Client {
	if !settings.HasAPIKey() {
		exitWithError(ExitConfigError, "OpenAI API key not found. Please set OPENAI_API_KEY environment variable.\nExample: export OPENAI_API_KEY='your-api-key-here'")
	}
	cfg := settings.LLMConfig()
	if model != "" {
		cfg.Model = model
	}
	return llm.NewClient(cfg)
}

// llmDelay returns the pause between model calls: the flag value in
// seconds when given, the configured delay otherwise.
func llmDelay(settings *config.Settings, seconds float64, flagSet bool) time.Duration {
	if flagSet {
		return time.Duration(seconds * float64(time.Second))
	}
	return settings.LLMDelay
}

// eta estimates the time left after done of total items took elapsed.
func eta(done, total int, elapsed time.Duration) time.Duration {
	if done == 0 {
		return 0
	}
	return time.Duration(total-done) * (elapsed / time.Duration(done))
}

func writeLabelsCSV(path string, header []string, rows [][]string) error {
	if err := export.WriteCSVFile(path, header, rows, false); err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	return nil
}

func printDistributionHuman(title string, width int, dist []llm.LabelCount) {
	fmt.Printf("\n%s:\n%s\n", title, strings.Repeat("-", width))
	for _, d := range dist {
		fmt.Printf("%s: %d papers (%.1f%%)\n", d.Label, d.Count, d.Percent)
	}
}
