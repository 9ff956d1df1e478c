package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	RunsDir    string `json:"runs_dir"`
	DataDir    string `json:"data_dir"`
	DBPath     string `json:"db_path"`

	// LLM backend selection: "rule" disables LLM agents entirely.
	LLMBackend     string  `json:"llm_backend"`
	OpenAIAPIKey   string  `json:"openai_api_key"`
	OpenAIBaseURL  string  `json:"openai_base_url"`
	DeepSeekAPIKey string  `json:"deepseek_api_key"`
	ChairModel     string  `json:"chair_model"`
	Temperature    float32 `json:"temperature"`

	// Committee roster for this deployment.
	AgentIDs []string `json:"agent_ids"`

	// Data provider settings.
	ProviderTimeoutSec int    `json:"provider_timeout_sec"`
	FREDAPIKey         string `json:"fred_api_key"`
	NewsQuery          string `json:"news_query"`
	HeadlineLimit      int    `json:"headline_limit"`

	// Longport API Configuration (optional broker-backed provider).
	LongportAppKey      string `json:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token"`

	// Telegram delivery. ChatIDs may hold several targets.
	TelegramBotToken string   `json:"telegram_bot_token"`
	TelegramChatIDs  []string `json:"telegram_chat_ids"`

	// Nightly schedule (cron expression with seconds field).
	CronSpec string `json:"cron_spec"`

	TracePath string `json:"trace_path"`
	Debug     bool   `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir: currentDir,
		RunsDir:    filepath.Join(currentDir, "runs"),
		DataDir:    filepath.Join(currentDir, "data"),
		DBPath:     filepath.Join(currentDir, "data", "investment.db"),

		LLMBackend:    "rule",
		OpenAIBaseURL: "https://api.openai.com/v1",
		ChairModel:    "gpt-4.1-mini",
		Temperature:   0.1,

		AgentIDs: []string{"macro", "flow", "sector", "risk"},

		ProviderTimeoutSec: 7,
		NewsQuery:          "KOSPI",
		HeadlineLimit:      8,

		CronSpec: "0 0 22 * * 1-5",
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RUNS_DIR"); val != "" {
		c.RunsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
		c.DBPath = filepath.Join(val, "investment.db")
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		c.DBPath = val
	}

	if val := os.Getenv("LLM_BACKEND"); val != "" {
		c.LLMBackend = strings.ToLower(strings.TrimSpace(val))
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
		c.OpenAIBaseURL = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("CHAIR_MODEL"); val != "" {
		c.ChairModel = val
	}

	if val := os.Getenv("AGENT_IDS"); val != "" {
		ids := strings.Split(val, ",")
		agents := make([]string, 0, len(ids))
		for _, id := range ids {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				agents = append(agents, trimmed)
			}
		}
		if len(agents) > 0 {
			c.AgentIDs = agents
		}
	}

	if val := os.Getenv("PROVIDER_TIMEOUT_SEC"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.ProviderTimeoutSec = v
		}
	}
	if val := os.Getenv("FRED_API_KEY"); val != "" {
		c.FREDAPIKey = val
	}
	if val := os.Getenv("NEWS_QUERY"); val != "" {
		c.NewsQuery = val
	}
	if val := os.Getenv("HEADLINE_LIMIT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.HeadlineLimit = v
		}
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}

	if val := os.Getenv("TELEGRAM_BOT_TOKEN"); val != "" {
		c.TelegramBotToken = val
	}
	// TELEGRAM_CHAT_ID can be a single id or comma-separated (e.g. 123,-456).
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		ids := strings.Split(val, ",")
		chats := make([]string, 0, len(ids))
		for _, id := range ids {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				chats = append(chats, trimmed)
			}
		}
		c.TelegramChatIDs = chats
	}

	if val := os.Getenv("CRON_SPEC"); val != "" {
		c.CronSpec = val
	}
	if val := os.Getenv("LLM_TRACE_PATH"); val != "" {
		c.TracePath = val
	}
	if val := os.Getenv("DEBUG"); val != "" {
		if debug, err := strconv.ParseBool(val); err == nil {
			c.Debug = debug
		}
	}
}

// Validate checks fields the pipeline cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RunsDir) == "" {
		return fmt.Errorf("runs_dir is required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	if len(c.AgentIDs) == 0 {
		return fmt.Errorf("at least one agent id is required")
	}
	switch c.LLMBackend {
	case "rule", "openai", "deepseek":
	default:
		return fmt.Errorf("unknown llm_backend %q", c.LLMBackend)
	}
	if c.ProviderTimeoutSec <= 0 {
		return fmt.Errorf("provider_timeout_sec must be positive")
	}
	return nil
}

// EnsureDirectories creates the runtime directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.RunsDir, c.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
