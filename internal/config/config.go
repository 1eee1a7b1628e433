package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/litreview/lit/internal/crossref"
	"github.com/litreview/lit/internal/llm"
	"github.com/litreview/lit/internal/springer"
)

// Tool names sent to Crossref in the User-Agent.
const (
	ValidatorTool = "DOI-Validator/1.0"
	FinderTool    = "DOI-Finder/1.0"
)

// Defaults that are not owned by a client package.
const (
	DefaultCheckDelay = 500 * time.Millisecond
	DefaultFindDelay  = time.Second
	DefaultLLMDelay   = time.Second
	DefaultDatabase   = "lit.db"

	// DefaultSpringerUserAgent is the browser agent the Springer feed
	// accepts; override it with springer.user_agent.
	DefaultSpringerUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Env holds the environment overrides.
type Env struct {
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel     string `envconfig:"LIT_OPENAI_MODEL"`
	OpenAIEndpoint  string `envconfig:"LIT_OPENAI_ENDPOINT"`
	CrossrefMailto  string `envconfig:"LIT_CROSSREF_MAILTO"`
	CrossrefBaseURL string `envconfig:"LIT_CROSSREF_BASE_URL"`
	Database        string `envconfig:"LIT_DATABASE"`
}

// LoadEnv reads .env from the working directory, if present, and then
// the process environment.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &e, nil
}

// Settings are the resolved values handed to clients and analyzers.
type Settings struct {
	ConfigPath string `json:"config_path"`

	CrossrefBaseURL string        `json:"crossref_base_url"`
	CrossrefMailto  string        `json:"crossref_mailto,omitempty"`
	CheckDelay      time.Duration `json:"check_delay"`
	FindDelay       time.Duration `json:"find_delay"`

	LLMEndpoint string        `json:"llm_endpoint"`
	LLMModel    string        `json:"llm_model"`
	LLMAPIKey   string        `json:"-"`
	LLMDelay    time.Duration `json:"llm_delay"`

	SpringerUserAgent string        `json:"springer_user_agent"`
	SpringerDelay     time.Duration `json:"springer_delay"`
	SpringerMaxPages  int           `json:"springer_max_pages"`

	// Stopwords is nil when the built-in list applies.
	Stopwords []string `json:"stopwords,omitempty"`
	Database  string   `json:"database"`
}

// HasAPIKey reports whether a chat API key is configured.
func (s *Settings) HasAPIKey() bool {
	return s.LLMAPIKey != ""
}

// ValidatorAgent is the User-Agent for DOI validation.
func (s *Settings) ValidatorAgent() string {
	return crossref.UserAgent(ValidatorTool, s.CrossrefMailto)
}

// FinderAgent is the User-Agent for title searches.
func (s *Settings) FinderAgent() string {
	return crossref.UserAgent(FinderTool, s.CrossrefMailto)
}

// LLMConfig returns the chat client configuration.
func (s *Settings) LLMConfig() llm.Config {
	return llm.Config{Endpoint: s.LLMEndpoint, Model: s.LLMModel, APIKey: s.LLMAPIKey}
}

// Defaults returns settings with nothing configured.
func Defaults() *Settings {
	return &Settings{
		CrossrefBaseURL:   crossref.BaseURL,
		CheckDelay:        DefaultCheckDelay,
		FindDelay:         DefaultFindDelay,
		LLMEndpoint:       llm.DefaultEndpoint,
		LLMModel:          llm.DefaultModel,
		LLMDelay:          DefaultLLMDelay,
		SpringerUserAgent: DefaultSpringerUserAgent,
		SpringerDelay:     springer.DefaultDelay,
		SpringerMaxPages:  springer.DefaultMaxPages,
		Database:          DefaultDatabase,
	}
}

// Resolve layers defaults, the global config file and the environment,
// later layers winning.
func Resolve() (*Settings, error) {
	file, err := LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	s := Merge(file, env)
	s.ConfigPath = GlobalConfigPath()
	return s, nil
}

// Merge applies file and env over the defaults. Either may be nil.
func Merge(file *GlobalConfig, env *Env) *Settings {
	s := Defaults()
	if file != nil {
		setString(&s.CrossrefBaseURL, file.Crossref.BaseURL)
		setString(&s.CrossrefMailto, file.Crossref.Mailto)
		setSeconds(&s.CheckDelay, file.Crossref.CheckDelay)
		setSeconds(&s.FindDelay, file.Crossref.FindDelay)
		setString(&s.LLMEndpoint, file.LLM.Endpoint)
		setString(&s.LLMModel, file.LLM.Model)
		setString(&s.LLMAPIKey, file.LLM.APIKey)
		setSeconds(&s.LLMDelay, file.LLM.Delay)
		setString(&s.SpringerUserAgent, file.Springer.UserAgent)
		setSeconds(&s.SpringerDelay, file.Springer.Delay)
		if file.Springer.MaxPages > 0 {
			s.SpringerMaxPages = file.Springer.MaxPages
		}
		if len(file.Stopwords) > 0 {
			s.Stopwords = append([]string(nil), file.Stopwords...)
		}
		setString(&s.Database, file.Database)
	}
	if env != nil {
		setString(&s.LLMAPIKey, env.OpenAIAPIKey)
		setString(&s.LLMModel, env.OpenAIModel)
		setString(&s.LLMEndpoint, env.OpenAIEndpoint)
		setString(&s.CrossrefMailto, env.CrossrefMailto)
		setString(&s.CrossrefBaseURL, env.CrossrefBaseURL)
		setString(&s.Database, ExpandPath(env.Database))
	}
	return s
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setSeconds(dst *time.Duration, seconds float64) {
	if seconds > 0 {
		*dst = time.Duration(seconds * float64(time.Second))
	}
}
