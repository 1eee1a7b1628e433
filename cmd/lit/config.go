package main

import (
	"fmt"

	"github.com/litreview/lit/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show resolved settings or get and set config file values",
	Long: `Show resolved settings, or get and set values of the config file.

Usage:
  lit config                          # Show resolved settings
  lit config llm.model                # Get a value from the config file
  lit config llm.model gpt-4o-mini    # Set a value in the config file

Keys:
  crossref.mailto, crossref.base_url, crossref.check_delay, crossref.find_delay
  llm.endpoint, llm.model, llm.api_key, llm.delay
  springer.user_agent, springer.delay, springer.max_pages
  database, stopwords (comma-separated)

Environment variables and a .env file override the config file.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for the bare config command.
type ConfigResponse struct {
	*config.Settings
	HasAPIKey bool `json:"has_api_key"`
}

// ValueResponse is the response for config get and set.
type ValueResponse struct {
	Status string `json:"status,omitempty"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Path   string `json:"path"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		settings := loadSettings()
		if humanOutput {
			printSettingsHuman(settings)
			return nil
		}
		return outputJSON(ConfigResponse{Settings: settings, HasAPIKey: settings.HasAPIKey()})
	}

	path := config.GlobalConfigPath()
	if path == "" {
		exitWithError(ExitConfigError, "cannot determine config file location")
	}
	cfg, err := config.ReadGlobalConfig(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	key := args[0]

	if len(args) == 1 {
		value, err := cfg.GetValue(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if key == "llm.api_key" && value != "" {
			value = "(set)"
		}
		if humanOutput {
			fmt.Println(value)
			return nil
		}
		return outputJSON(ValueResponse{Key: key, Value: value, Path: path})
	}

	if err := cfg.SetValue(key, args[1]); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := config.SaveGlobalConfig(path, cfg); err != nil {
		exitWithError(ExitOutputError, "%v", err)
	}
	value, _ := cfg.GetValue(key)
	if key == "llm.api_key" {
		value = "(set)"
	}
	if humanOutput {
		fmt.Printf("Set %s = %s in %s\n", key, value, path)
		return nil
	}
	return outputJSON(ValueResponse{Status: "updated", Key: key, Value: value, Path: path})
}

func printSettingsHuman(s *config.Settings) {
	fmt.Printf("Config file: %s\n\n", s.ConfigPath)
	fmt.Println("Crossref:")
	fmt.Printf("  base URL:    %s\n", s.CrossrefBaseURL)
	fmt.Printf("  mailto:      %s\n", s.CrossrefMailto)
	fmt.Printf("  check delay: %s\n", s.CheckDelay)
	fmt.Printf("  find delay:  %s\n", s.FindDelay)
	fmt.Println("LLM:")
	fmt.Printf("  endpoint:    %s\n", s.LLMEndpoint)
	fmt.Printf("  model:       %s\n", s.LLMModel)
	fmt.Printf("  API key set: %v\n", s.HasAPIKey())
	fmt.Printf("  delay:       %s\n", s.LLMDelay)
	fmt.Println("Springer:")
	fmt.Printf("  user agent:  %s\n", truncateString(s.SpringerUserAgent, SearchTitleMaxLen))
	fmt.Printf("  delay:       %s\n", s.SpringerDelay)
	fmt.Printf("  max pages:   %d\n", s.SpringerMaxPages)
	fmt.Printf("Database:      %s\n", s.Database)
	if s.Stopwords != nil {
		fmt.Printf("Stopwords:     %d custom\n", len(s.Stopwords))
	} else {
		fmt.Println("Stopwords:     built-in")
	}
}
