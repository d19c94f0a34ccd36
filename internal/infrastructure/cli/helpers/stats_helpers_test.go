package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/puremath/internal/domain"
)

func TestTopCountsOrdersByCountThenKey(t *testing.T) {
	got := TopCounts(map[string]int{"@bob": 2, "@amy": 2, "@cat": 5, "@dan": 1}, 3)
	assert.Equal(t, []CountStatistic{
		{Key: "@cat", Count: 5},
		{Key: "@amy", Count: 2},
		{Key: "@bob", Count: 2},
	}, got)
	assert.Len(t, TopCounts(map[string]int{"a": 1, "b": 1}, 0), 2)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@ada", DisplayName(domain.UserInfo{ID: 1, Username: "ada", FirstName: "Ada"}))
	assert.Equal(t, "Ada Lovelace", DisplayName(domain.UserInfo{ID: 1, FirstName: "Ada", LastName: "Lovelace"}))
	assert.Equal(t, "42", DisplayName(domain.UserInfo{ID: 42}))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "Solve 2x + 5 = 15", Preview("Solve  2x + 5\n= 15", 40))
	assert.Equal(t, "abcd...", Preview("abcdefghij", 7))
	assert.Equal(t, "ab", Preview("abcdefghij", 2))
}
