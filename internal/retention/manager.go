package retention

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Manager handles periodic cleanup of old journal files.
type Manager struct {
	config    Config
	stopCh    chan struct{}
	stoppedCh chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewManager creates a new retention Manager.
func NewManager(config Config) *Manager {
	return &Manager{
		config:    config.WithDefaults(),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins the background cleanup goroutine.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	go m.run()
}

// Stop signals the background goroutine to stop and waits for it to exit.
func (m *Manager) Stop() {
	shouldStop := false
	func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.running {
			return
		}
		m.running = false
		shouldStop = true
	}()

	if !shouldStop {
		return
	}

	close(m.stopCh)
	<-m.stoppedCh
}

func (m *Manager) run() {
	defer close(m.stoppedCh)

	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stopCh:
			return
		}
	}
}

// Cleanup deletes journal files older than the TTL and returns the number of
// files removed. Exported so callers can trigger a pass outside the schedule.
func (m *Manager) Cleanup() int {
	if m.config.JournalDir == "" {
		return 0
	}

	entries, err := os.ReadDir(m.config.JournalDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read journal directory: %v", err)
		}
		return 0
	}

	ttl := time.Duration(m.config.JournalTTLHours) * time.Hour
	now := time.Now()
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), m.config.JournalSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if now.Sub(info.ModTime()) > ttl {
			path := filepath.Join(m.config.JournalDir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to delete journal file %s: %v", path, err)
				continue
			}
			deleted++
		}
	}

	if deleted > 0 {
		log.Printf("Deleted %d journal files older than %d hours", deleted, m.config.JournalTTLHours)
	}

	return deleted
}
