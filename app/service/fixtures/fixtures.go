// Package fixtures loads the bundled example conversations used by the
// demo UI and the replay mode.
package fixtures

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"memochat/app/schema"
	"os"
	"path/filepath"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

var dataFilePath = filepath.Join("data", "conversations.jsonl")

// Conversation is one bundled example: a name and a prebuilt message log.
type Conversation struct {
	Name     string           `json:"name"`
	Messages []schema.Message `json:"messages"`
}

type Service struct {
	conversations []Conversation
}

func New(_ *do.Injector) (*Service, error) {
	file, err := os.Open(dataFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversations file: %w", err)
	}
	defer file.Close()

	conversations, err := Parse(file)
	if err != nil {
		return nil, err
	}

	return &Service{conversations: conversations}, nil
}

// Parse reads conversations from JSON lines. Blank lines are skipped;
// corrupt lines are logged and skipped rather than failing the load.
func Parse(r io.Reader) ([]Conversation, error) {
	var result []Conversation

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var conversation Conversation
		if err := json.Unmarshal([]byte(line), &conversation); err != nil {
			slog.Warn("Skipping invalid conversation line",
				"line", lineNum,
				"error", err)
			continue
		}

		result = append(result, conversation)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading conversations: %w", err)
	}

	return result, nil
}

func (s *Service) Names() []string {
	return pie.Map(s.conversations, func(c Conversation) string {
		return c.Name
	})
}

func (s *Service) Get(name string) (Conversation, bool) {
	idx := pie.FindFirstUsing(s.conversations, func(c Conversation) bool {
		return c.Name == name
	})
	if idx < 0 {
		return Conversation{}, false
	}

	return s.conversations[idx], true
}
