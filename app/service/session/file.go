package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps snapshots in a JSON-lines file, one thread per line.
// The whole file is rewritten on every Put; fine for a handful of demo
// sessions, swap the Store for anything bigger.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	data   map[string]json.RawMessage
	closed bool
}

type fileLine struct {
	ThreadID string          `json:"thread_id"`
	State    json.RawMessage `json:"state"`
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore) load() error {
	file, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item fileLine
		if err = json.Unmarshal([]byte(line), &item); err != nil {
			return fmt.Errorf("failed to parse session line: %w", err)
		}

		s.data[item.ThreadID] = item.State
	}

	if err = scanner.Err(); err != nil {
		return fmt.Errorf("error reading session file: %w", err)
	}

	return nil
}

func (s *FileStore) flushLocked() error {
	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		data, err := json.Marshal(fileLine{ThreadID: id, State: s.data[id]})
		if err != nil {
			return fmt.Errorf("failed to marshal session line: %w", err)
		}
		if _, err = writer.WriteString(string(data) + "\n"); err != nil {
			return fmt.Errorf("failed to write session line: %w", err)
		}
	}

	if err = writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	return nil
}

func (s *FileStore) Get(threadID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	snapshot, ok := s.data[threadID]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(snapshot))
	copy(result, snapshot)

	return result, nil
}

func (s *FileStore) Put(threadID string, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	stored := make(json.RawMessage, len(snapshot))
	copy(stored, snapshot)
	s.data[threadID] = stored

	return s.flushLocked()
}

func (s *FileStore) Delete(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	delete(s.data, threadID)

	return s.flushLocked()
}

func (s *FileStore) Threads() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	threads := make([]string, 0, len(s.data))
	for id := range s.data {
		threads = append(threads, id)
	}
	sort.Strings(threads)

	return threads, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = nil

	return nil
}
