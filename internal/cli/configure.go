package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/hankyul/CommitteeGo/config"
	"github.com/hankyul/CommitteeGo/pkg/schema"
)

func newConfigureCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactively edit the persisted configuration",
		Long:  "Walk through the main settings and write them to the config file used by the scheduler.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cfg)
		},
	}
}

func runConfigure(cfg *config.Config) error {
	updated := *cfg

	var backend string
	if err := survey.AskOne(&survey.Select{
		Message: "LLM backend for stance generation:",
		Options: []string{"rule", "openai", "deepseek"},
		Default: cfg.LLMBackend,
		Help:    "\"rule\" runs deterministic agents without any model calls",
	}, &backend); err != nil {
		return err
	}
	updated.LLMBackend = backend

	if backend == "openai" {
		if err := askSecret("OpenAI API key:", cfg.OpenAIAPIKey, &updated.OpenAIAPIKey); err != nil {
			return err
		}
	}
	if backend == "deepseek" {
		if err := askSecret("DeepSeek API key:", cfg.DeepSeekAPIKey, &updated.DeepSeekAPIKey); err != nil {
			return err
		}
	}

	allSeats := make([]string, len(schema.AllAgentNames))
	for i, name := range schema.AllAgentNames {
		allSeats[i] = string(name)
	}
	var seats []string
	if err := survey.AskOne(&survey.MultiSelect{
		Message: "Committee seats:",
		Options: allSeats,
		Default: cfg.AgentIDs,
	}, &seats, survey.WithValidator(survey.MinItems(1))); err != nil {
		return err
	}
	updated.AgentIDs = seats

	var newsQuery string
	if err := survey.AskOne(&survey.Input{
		Message: "News search query:",
		Default: cfg.NewsQuery,
	}, &newsQuery); err != nil {
		return err
	}
	if strings.TrimSpace(newsQuery) != "" {
		updated.NewsQuery = strings.TrimSpace(newsQuery)
	}

	if err := askSecret("FRED API key (empty disables macro series):", cfg.FREDAPIKey, &updated.FREDAPIKey); err != nil {
		return err
	}
	if err := askSecret("Telegram bot token (empty prints to console):", cfg.TelegramBotToken, &updated.TelegramBotToken); err != nil {
		return err
	}

	if updated.TelegramBotToken != "" {
		var chatIDs string
		if err := survey.AskOne(&survey.Input{
			Message: "Telegram chat ids (comma-separated):",
			Default: strings.Join(cfg.TelegramChatIDs, ","),
		}, &chatIDs); err != nil {
			return err
		}
		var parsed []string
		for _, id := range strings.Split(chatIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				parsed = append(parsed, id)
			}
		}
		updated.TelegramChatIDs = parsed
	}

	var cronSpec string
	if err := survey.AskOne(&survey.Input{
		Message: "Nightly cron spec (with seconds field):",
		Default: cfg.CronSpec,
		Help:    "e.g. \"0 0 22 * * 1-5\" for 22:00 on weekdays",
	}, &cronSpec); err != nil {
		return err
	}
	if strings.TrimSpace(cronSpec) != "" {
		updated.CronSpec = strings.TrimSpace(cronSpec)
	}

	if err := updated.Validate(); err != nil {
		return fmt.Errorf("rejected: %w", err)
	}

	manager, err := config.NewManager(config.WithInitialConfig(&updated))
	if err != nil {
		return fmt.Errorf("config manager: %w", err)
	}
	if err := manager.Update(updated); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	*cfg = updated
	fmt.Println(successStyle.Render("configuration saved to " + manager.Path()))
	return nil
}

func askSecret(message, current string, target *string) error {
	var value string
	prompt := &survey.Password{Message: message}
	if err := survey.AskOne(prompt, &value); err != nil {
		return err
	}
	// Empty input keeps the existing value.
	if strings.TrimSpace(value) != "" {
		*target = value
	} else {
		*target = current
	}
	return nil
}
