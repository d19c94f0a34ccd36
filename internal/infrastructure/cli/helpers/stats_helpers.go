package helpers

import (
	"sort"
	"strconv"
	"strings"

	"github.com/doeshing/puremath/internal/domain"
)

// CountStatistic pairs a label with how often it occurred.
type CountStatistic struct {
	Key   string
	Count int
}

// TopCounts returns the limit most frequent keys, highest count first and
// ties broken alphabetically. A limit of 0 or less returns every key.
func TopCounts(frequency map[string]int, limit int) []CountStatistic {
	stats := make([]CountStatistic, 0, len(frequency))
	for key, count := range frequency {
		stats = append(stats, CountStatistic{Key: key, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Key < stats[j].Key
		}
		return stats[i].Count > stats[j].Count
	})

	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// DisplayName prefers @username, then the full name, then the numeric id.
func DisplayName(user domain.UserInfo) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
		return name
	}
	return strconv.FormatInt(user.ID, 10)
}

// Preview collapses whitespace and cuts text to width runes.
func Preview(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if width <= 0 || len(runes) <= width {
		return text
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
