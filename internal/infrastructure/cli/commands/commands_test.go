package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/puremath/internal/app"
	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/infrastructure/cache"
	"github.com/doeshing/puremath/internal/infrastructure/history"
	"github.com/doeshing/puremath/internal/infrastructure/normalize"
	"github.com/doeshing/puremath/internal/infrastructure/render"
	"github.com/doeshing/puremath/internal/pkg/logger"
)

func TestCacheListAndStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store, err := cache.NewFileCache(path, time.Hour, 10, logger.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, listCacheEntries(&out, store))
	assert.Equal(t, MsgNoCachedResponses+"\n", out.String())

	store.Set("Solve 2x + 5 = 15", "Step 1: 2x = 10\nSolution: [x = 5]")
	out.Reset()
	require.NoError(t, listCacheEntries(&out, store))
	assert.Contains(t, out.String(), cache.Key("Solve 2x + 5 = 15")[:12])
	assert.Contains(t, out.String(), "Step 1: 2x = 10 Solution: [x = 5]")

	out.Reset()
	require.NoError(t, showCacheStats(&out, store, time.Now().Add(2*time.Hour)))
	assert.Contains(t, out.String(), "Current entries: 1")
	assert.Contains(t, out.String(), "Stale (dropped at next start): 1")

	out.Reset()
	require.NoError(t, clearCache(&out, store))
	assert.NoFileExists(t, path)
}

func TestCacheCommandsRequireStore(t *testing.T) {
	var out bytes.Buffer
	assert.EqualError(t, listCacheEntries(&out, nil), ErrCacheStoreUnavailable)
	assert.EqualError(t, clearCache(&out, nil), ErrCacheStoreUnavailable)
}

func seededHistory(t *testing.T) *history.FileStore {
	t.Helper()
	store := history.NewFileStore(filepath.Join(t.TempDir(), "questions.json"), logger.NewNop())
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(domain.NewQuestionLogRecord(at, 1, domain.UserInfo{ID: 1, Username: "ada"}, "Factor x² - 4", "(x - 2)(x + 2) because...")))
	require.NoError(t, store.Append(domain.NewQuestionLogRecord(at.Add(time.Minute), 2, domain.UserInfo{ID: 2, FirstName: "Alan"}, "Area of circle r=5", "Area = 25π")))
	require.NoError(t, store.Append(domain.NewQuestionLogRecord(at.Add(2*time.Minute), 1, domain.UserInfo{ID: 1, Username: "ada"}, "Derivative of ln(x)", "1/x for x > 0")))
	return store
}

func TestHistoryListSearchAndStats(t *testing.T) {
	store := seededHistory(t)

	var out bytes.Buffer
	require.NoError(t, listHistoryEntries(&out, store, 2))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Derivative of ln(x)")
	assert.Contains(t, lines[1], "Alan")

	out.Reset()
	require.NoError(t, searchHistoryEntries(&out, store, "circle", 10))
	assert.Contains(t, out.String(), "Area of circle r=5")
	assert.NotContains(t, out.String(), "Factor")

	out.Reset()
	require.NoError(t, showHistoryStats(&out, store))
	assert.Contains(t, out.String(), "Questions: 3")
	assert.Contains(t, out.String(), "Chats: 2")
	assert.Contains(t, out.String(), "@ada (2)")
}

func TestHistoryExportWritesJSONLines(t *testing.T) {
	store := seededHistory(t)
	dest := filepath.Join(t.TempDir(), "export.jsonl")

	require.NoError(t, exportHistory(store, dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)

	require.NoError(t, clearHistory(store))
	var out bytes.Buffer
	require.NoError(t, listHistoryEntries(&out, store, 10))
	assert.Equal(t, MsgNoHistoryRecorded+"\n", out.String())
}

func TestRenderFilesWritesRequestedArtifacts(t *testing.T) {
	renderer, err := render.New(domain.RenderSettings{ImageWidth: 400, ImageHeight: 300, FontSize: 14}, normalize.Normalize)
	require.NoError(t, err)
	container := &app.Container{Renderer: renderer}
	dir := t.TempDir()
	png := filepath.Join(dir, "out.png")

	var out bytes.Buffer
	require.NoError(t, renderFiles(&out, container, `x = \frac{10}{2}`, png, ""))
	assert.FileExists(t, png)
	assert.NoFileExists(t, filepath.Join(dir, "out.pdf"))
	assert.Contains(t, out.String(), "image/png")

	pdf := filepath.Join(dir, "out.pdf")
	require.NoError(t, renderFiles(&out, container, "Step 1: 2x = 10", "", pdf))
	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderCommandRequiresOutput(t *testing.T) {
	cmd := NewRenderCommand(&app.Container{})
	cmd.SetArgs([]string{"--in", "-"})
	cmd.SetIn(strings.NewReader("x = 5"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.EqualError(t, cmd.Execute(), ErrRenderOutputRequired)
}

func TestDoctorReportFormatting(t *testing.T) {
	report := domain.HealthReport{Checks: []domain.HealthCheck{
		{Name: "Config file", Status: domain.HealthOK, Details: "loaded format 1"},
		{Name: "Telegram", Status: domain.HealthError, Details: "401 Unauthorized"},
	}}
	var out bytes.Buffer
	displayDoctorReport(&out, report)
	assert.Equal(t, "[OK] Config file - loaded format 1\n[ERROR] Telegram - 401 Unauthorized\n", out.String())
	assert.Equal(t, 1, report.Failed())
}

func TestVersionOutput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, displayVersionInformation(&out))
	assert.True(t, strings.HasPrefix(out.String(), "PuReMath version "))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out lockedBuffer
	s := NewSpinner(&out, "Running checks")
	s.Start()
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop()

	got := out.String()
	assert.Contains(t, got, "⠋ Running checks")
	assert.True(t, strings.HasSuffix(got, "\r\033[K"))
}
