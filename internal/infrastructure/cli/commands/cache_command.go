package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/puremath/internal/app"
	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/infrastructure/cli/helpers"
	"github.com/doeshing/puremath/internal/ports"
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the response cache",
	}

	cacheCmd.AddCommand(
		newCacheListCommand(container),
		newCacheClearCommand(container),
		newCacheStatsCommand(container),
	)

	return cacheCmd
}

func newCacheListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cache entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCacheEntries(cmd.OutOrStdout(), container.CacheStore)
		},
	}
}

func newCacheClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearCache(cmd.OutOrStdout(), container.CacheStore)
		},
	}
}

func newCacheStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache settings, size and age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showCacheStats(cmd.OutOrStdout(), container.CacheStore, time.Now())
		},
	}
}

func listCacheEntries(out io.Writer, store ports.CacheRepository) error {
	if store == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}

	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoCachedResponses)
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintf(out, "%s | %s | %s\n",
			shortKey(entry.Key),
			entry.Timestamp.Local().Format(TimestampFormat),
			helpers.Preview(entry.Response, PreviewWidth))
	}
	return nil
}

func clearCache(out io.Writer, store ports.CacheRepository) error {
	if store == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintf(out, "Cleared %s\n", store.Path())
	return nil
}

func showCacheStats(out io.Writer, store ports.CacheRepository, now time.Time) error {
	if store == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}

	settings := store.Settings()
	entries := store.Entries()

	fmt.Fprintf(out, "Cache file: %s\nSize: %s\nTTL: %s\nMax entries: %d\nCurrent entries: %d\n",
		settings.Path,
		humanize.Bytes(uint64(fileSize(settings.Path))),
		settings.TTL,
		settings.MaxEntries,
		len(entries))

	if len(entries) == 0 {
		return nil
	}
	stale := countStale(entries, now, settings.TTL)
	fmt.Fprintf(out, "Stale (dropped at next start): %d\nNewest: %s\nOldest: %s\n",
		stale,
		humanize.RelTime(entries[0].Timestamp, now, "ago", "from now"),
		humanize.RelTime(entries[len(entries)-1].Timestamp, now, "ago", "from now"))
	return nil
}

func countStale(entries []domain.KeyedCacheEntry, now time.Time, ttl time.Duration) int {
	n := 0
	for _, e := range entries {
		if e.Expired(now, ttl) {
			n++
		}
	}
	return n
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
