package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/pkg/logger"
	"github.com/doeshing/puremath/internal/ports"
)

func record(i int, question, response string) domain.QuestionLogRecord {
	at := time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC)
	return domain.NewQuestionLogRecord(at, 77, domain.UserInfo{ID: 42, Username: "ada", FirstName: "Ada"}, question, response)
}

func stores(t *testing.T) map[string]ports.QuestionLogRepository {
	t.Helper()
	dir := t.TempDir()
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "questions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]ports.QuestionLogRepository{
		"json":   NewFileStore(filepath.Join(dir, "questions.json"), logger.NewNop()),
		"sqlite": sqlite,
	}
}

func TestStoresAppendAndList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(record(1, "Solve 2x + 5 = 15", "Solution: [x = 5]")))
			require.NoError(t, store.Append(record(2, "Factor x² - 4", "(x - 2)(x + 2)")))
			require.NoError(t, store.Append(record(3, "Derivative of ln(x)", "1/x")))

			all, err := store.Records(0, "")
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "Derivative of ln(x)", all[0].Question)
			assert.Equal(t, "Solve 2x + 5 = 15", all[2].Question)
			assert.Equal(t, domain.UserInfo{ID: 42, Username: "ada", FirstName: "Ada"}, all[2].User)
			assert.Equal(t, int64(77), all[2].ChatID)
			assert.Equal(t, len([]rune("Solution: [x = 5]")), all[2].ResponseLength)
			assert.True(t, all[2].Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)))

			limited, err := store.Records(2, "")
			require.NoError(t, err)
			assert.Len(t, limited, 2)

			found, err := store.Records(0, "factor")
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "Factor x² - 4", found[0].Question)
		})
	}
}

func TestStoresExportAndClear(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(record(1, "q1", "a1")))
			require.NoError(t, store.Append(record(2, "q2", "a2")))

			dest := filepath.Join(t.TempDir(), "export.jsonl")
			require.NoError(t, store.ExportJSON(dest))

			file, err := os.Open(dest)
			require.NoError(t, err)
			defer file.Close()
			var questions []string
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				var rec domain.QuestionLogRecord
				require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
				questions = append(questions, rec.Question)
			}
			assert.Equal(t, []string{"q1", "q2"}, questions)

			require.NoError(t, store.Clear())
			all, err := store.Records(0, "")
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestFileStoreWritesJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	store := NewFileStore(path, logger.NewNop())
	require.NoError(t, store.Append(record(1, "q", strings.Repeat("x", 1500))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.EqualValues(t, 1500, raw[0]["response_length"])
	assert.Len(t, raw[0]["response"], 1003)
	assert.NoFileExists(t, path+".tmp")
}

func TestFileStoreKeepsUnreadableLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	store := NewFileStore(path, logger.NewNop())
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(record(i, fmt.Sprintf("q%d", i), "a")))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	corrupt := append(bytes.TrimRight(data, "]\n"), []byte(",]")...)
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))

	err = store.Append(record(4, "q4", "a"))
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, after)
	assert.Contains(t, string(after), `"q1"`)
	assert.NotContains(t, string(after), `"q4"`)
}

func TestFileStoreConcurrentAppends(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "questions.json"), logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(record(i, "q", "a")))
		}(i)
	}
	wg.Wait()

	all, err := store.Records(0, "")
	require.NoError(t, err)
	assert.Len(t, all, 10)
}
