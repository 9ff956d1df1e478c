package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hankyul/CommitteeGo/config"
	"github.com/hankyul/CommitteeGo/internal/pipeline"
	"github.com/hankyul/CommitteeGo/pkg/schema"
	"github.com/hankyul/CommitteeGo/pkg/snapshot"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))
)

func regimeStyle(tag schema.RegimeTag) lipgloss.Style {
	switch tag {
	case schema.RegimeRiskOn:
		return successStyle
	case schema.RegimeRiskOff:
		return failStyle
	}
	return warnStyle
}

// printOutcome summarizes a finished run on the terminal.
func printOutcome(outcome *pipeline.Outcome) {
	fmt.Println(titleStyle.Render("Committee run complete"))
	fmt.Printf("%s %s\n", headerStyle.Render("Market date:"), outcome.MarketDate)
	fmt.Printf("%s %s\n", headerStyle.Render("Majority:"), regimeStyle(outcome.Result.MajorityTag).Render(string(outcome.Result.MajorityTag)))
	fmt.Printf("%s %s\n", headerStyle.Render("Consensus:"), outcome.Result.Consensus)
	fmt.Printf("%s %d stance(s), %d disagreement(s)\n",
		headerStyle.Render("Committee:"), len(outcome.Stances), len(outcome.Result.Disagreements))
	fmt.Printf("%s %s\n", headerStyle.Render("Artifacts:"), outcome.RunDir)

	printSourceStatus(outcome.Status)
}

func printSourceStatus(status snapshot.SourceStatus) {
	if len(status) == 0 {
		return
	}
	sources := make([]string, 0, len(status))
	for source := range status {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	fmt.Println(headerStyle.Render("Data sources:"))
	for _, source := range sources {
		state := status[source]
		style := successStyle
		if state != snapshot.StatusOK {
			style = failStyle
		}
		fmt.Printf("  %-12s %s\n", source, style.Render(string(state)))
	}
}

func newStatusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show recent runs and configuration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(titleStyle.Render("CommitteeGo status"))

			fmt.Printf("%s %s\n", headerStyle.Render("Backend:"), cfg.LLMBackend)
			fmt.Printf("%s %s\n", headerStyle.Render("Roster:"), strings.Join(cfg.AgentIDs, ", "))
			fmt.Printf("%s %s\n", headerStyle.Render("Cron:"), cfg.CronSpec)

			telegramState := failStyle.Render("console fallback")
			if cfg.TelegramBotToken != "" && len(cfg.TelegramChatIDs) > 0 {
				telegramState = successStyle.Render(fmt.Sprintf("%d chat(s)", len(cfg.TelegramChatIDs)))
			}
			fmt.Printf("%s %s\n", headerStyle.Render("Telegram:"), telegramState)

			printRecentRuns(cfg.RunsDir, 7)
			return nil
		},
	}
}

func printRecentRuns(runsDir string, limit int) {
	entries, err := os.ReadDir(runsDir)
	if err != nil || len(entries) == 0 {
		fmt.Println(infoStyle.Render("no stored runs"))
		return
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			dates = append(dates, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > limit {
		dates = dates[:limit]
	}

	fmt.Println(headerStyle.Render("Recent runs:"))
	for _, date := range dates {
		marker := successStyle.Render("complete")
		if _, err := os.Stat(filepath.Join(runsDir, date, "report.md")); err != nil {
			marker = failStyle.Render("incomplete")
		}
		fmt.Printf("  %s  %s\n", date, marker)
	}
}

func showConfig(cfg *config.Config) {
	fmt.Println(titleStyle.Render("Configuration"))
	fmt.Printf("  runs_dir:        %s\n", cfg.RunsDir)
	fmt.Printf("  data_dir:        %s\n", cfg.DataDir)
	fmt.Printf("  db_path:         %s\n", cfg.DBPath)
	fmt.Printf("  llm_backend:     %s\n", cfg.LLMBackend)
	fmt.Printf("  chair_model:     %s\n", cfg.ChairModel)
	fmt.Printf("  agent_ids:       %s\n", strings.Join(cfg.AgentIDs, ", "))
	fmt.Printf("  news_query:      %s\n", cfg.NewsQuery)
	fmt.Printf("  headline_limit:  %d\n", cfg.HeadlineLimit)
	fmt.Printf("  cron_spec:       %s\n", cfg.CronSpec)
	fmt.Printf("  openai_api_key:  %s\n", maskSecret(cfg.OpenAIAPIKey))
	fmt.Printf("  deepseek_key:    %s\n", maskSecret(cfg.DeepSeekAPIKey))
	fmt.Printf("  fred_api_key:    %s\n", maskSecret(cfg.FREDAPIKey))
	fmt.Printf("  telegram_token:  %s\n", maskSecret(cfg.TelegramBotToken))
}

func maskSecret(secret string) string {
	if secret == "" {
		return infoStyle.Render("(not set)")
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}
