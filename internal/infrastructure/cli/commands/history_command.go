package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/puremath/internal/app"
	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/infrastructure/cli/helpers"
	"github.com/doeshing/puremath/internal/ports"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the question log",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistorySearchCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
	)

	return historyCmd
}

func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container.HistoryStore, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show")
	return cmd
}

func newHistorySearchCommand(container *app.Container) *cobra.Command {
	var query string
	var searchLimit int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search questions, answers and usernames",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return errors.New(ErrQueryRequired)
			}
			return searchHistoryEntries(cmd.OutOrStdout(), container.HistoryStore, query, searchLimit)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search keyword")
	cmd.Flags().IntVar(&searchLimit, "limit", DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the question log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearHistory(container.HistoryStore)
		},
	}
}

func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export the question log to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHistory(container.HistoryStore, args[0])
		},
	}
}

func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show question counts and the most active users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryStats(cmd.OutOrStdout(), container.HistoryStore)
		},
	}
}

func listHistoryEntries(out io.Writer, store ports.QuestionLogRepository, limit int) error {
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	records, err := store.Records(limit, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve question log: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	printRecords(out, records)
	return nil
}

func searchHistoryEntries(out io.Writer, store ports.QuestionLogRepository, query string, limit int) error {
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	records, err := store.Records(limit, query)
	if err != nil {
		return fmt.Errorf("failed to search question log: %w", err)
	}
	printRecords(out, records)
	return nil
}

func printRecords(out io.Writer, records []domain.QuestionLogRecord) {
	for _, rec := range records {
		fmt.Fprintf(out, "%s | %s | %s\n",
			rec.Timestamp.Local().Format(TimestampFormat),
			helpers.DisplayName(rec.User),
			helpers.Preview(rec.Question, PreviewWidth))
	}
}

func clearHistory(store ports.QuestionLogRepository) error {
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear question log: %w", err)
	}
	return nil
}

func exportHistory(store ports.QuestionLogRepository, path string) error {
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}
	if err := store.ExportJSON(path); err != nil {
		return fmt.Errorf("failed to export question log to %s: %w", path, err)
	}
	return nil
}

func showHistoryStats(out io.Writer, store ports.QuestionLogRepository) error {
	if store == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}

	records, err := store.Records(0, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve question log for analysis: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	users := make(map[string]int)
	chats := make(map[int64]struct{})
	totalLength := 0
	for _, rec := range records {
		users[helpers.DisplayName(rec.User)]++
		chats[rec.ChatID] = struct{}{}
		totalLength += rec.ResponseLength
	}

	fmt.Fprintf(out, "Questions: %d\nChats: %d\nAverage answer length: %d characters\n",
		len(records), len(chats), totalLength/len(records))
	fmt.Fprintln(out, "Most active users:")
	for _, stat := range helpers.TopCounts(users, DefaultTopUsers) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Key, stat.Count)
	}
	return nil
}
