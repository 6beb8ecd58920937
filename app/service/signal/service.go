package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"skimmer/app/config"

	"github.com/samber/do"
)

// Signal is what a text selection hands to the next popup.
type Signal struct {
	SelectedText  string `json:"selectedText"`
	AutoSummarize bool   `json:"autoSummarize"`
	SourceURL     string `json:"sourceUrl,omitempty"`
}

// Store keeps the signal in a small JSON file so separate processes can share it.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(di *do.Injector) (*Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewStore(cfg.Signal.Path)
}

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create signal directory: %w", err)
	}

	return &Store{path: path}, nil
}

func (s *Store) Get() (Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

func (s *Store) Set(sig Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(sig); err != nil {
		return err
	}

	slog.Debug("Stored signal", "length", len(sig.SelectedText), "auto_summarize", sig.AutoSummarize)

	return nil
}

// Take returns the current signal and clears its trigger flag in one step,
// so a trigger is delivered at most once.
func (s *Store) Take() (Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, err := s.read()
	if err != nil {
		return Signal{}, err
	}

	if !sig.AutoSummarize {
		return sig, nil
	}

	cleared := sig
	cleared.AutoSummarize = false
	if err = s.write(cleared); err != nil {
		return Signal{}, fmt.Errorf("failed to clear trigger: %w", err)
	}

	return sig, nil
}

func (s *Store) read() (Signal, error) {
	var sig Signal

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return sig, nil
	}
	if err != nil {
		return sig, fmt.Errorf("failed to read signal file: %w", err)
	}

	if len(data) == 0 {
		return sig, nil
	}

	if err = json.Unmarshal(data, &sig); err != nil {
		return sig, fmt.Errorf("failed to parse signal file: %w", err)
	}

	return sig, nil
}

func (s *Store) write(sig Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write signal file: %w", err)
	}

	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace signal file: %w", err)
	}

	return nil
}
