package history

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/doeshing/puremath/internal/domain"
)

func writeJSONLines(dest string, records []domain.QuestionLogRecord) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

func matches(rec domain.QuestionLogRecord, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Question), search) ||
		strings.Contains(strings.ToLower(rec.Response), search) ||
		strings.Contains(strings.ToLower(rec.User.Username), search)
}
