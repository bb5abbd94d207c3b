package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"signcast/internal/composer"
	"signcast/internal/config"
	"signcast/internal/dictionary"
	"signcast/internal/jobs"
	"signcast/internal/logging"
	"signcast/internal/resolver"
	"signcast/internal/translate"
)

// SnapshotProvider supplies the current dictionary snapshot.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*dictionary.Snapshot, error)
}

// Translator is the external translation collaborator.
type Translator interface {
	Enabled() bool
	Translate(ctx context.Context, text string) (translate.Translations, error)
}

// Manager coordinates the worker pool that processes generation jobs.
type Manager struct {
	cfg        *config.Config
	jobs       *jobs.Store
	snapshots  SnapshotProvider
	resolver   *resolver.Resolver
	composer   *composer.Composer
	translator Translator
	logger     *slog.Logger

	pollInterval time.Duration
	errorRetry   time.Duration
	workerCount  int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a lifecycle manager.
func NewManager(
	cfg *config.Config,
	jobStore *jobs.Store,
	snapshots SnapshotProvider,
	res *resolver.Resolver,
	comp *composer.Composer,
	translator Translator,
	logger *slog.Logger,
) *Manager {
	workers := cfg.Workflow.WorkerCount
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		cfg:          cfg,
		jobs:         jobStore,
		snapshots:    snapshots,
		resolver:     res,
		composer:     comp,
		translator:   translator,
		logger:       logging.NewComponentLogger(logger, "lifecycle"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetry:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		workerCount:  workers,
	}
}

// Start launches the worker pool.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("lifecycle already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(m.workerCount)
	for i := 0; i < m.workerCount; i++ {
		go m.runWorker(runCtx, i)
	}
	m.logger.Info("worker pool started", logging.Int("workers", m.workerCount))
	return nil
}

// Stop terminates the worker pool and waits for in-flight jobs to settle.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("worker pool stopped")
}

// Running reports whether the pool is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
