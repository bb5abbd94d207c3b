package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"signcast/internal/artifacts"
	"signcast/internal/composer"
	"signcast/internal/config"
	"signcast/internal/dictionary"
	"signcast/internal/jobs"
	"signcast/internal/lifecycle"
	"signcast/internal/logging"
	"signcast/internal/media"
	"signcast/internal/resolver"
	"signcast/internal/status"
	"signcast/internal/store"
	"signcast/internal/translate"
)

// Daemon coordinates the background services and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	db         *store.DB
	jobs       *jobs.Store
	artifacts  *artifacts.Store
	dictionary *dictionary.Store
	gateway    *status.Gateway
	toolkit    *media.Toolkit
	lifecycle  *lifecycle.Manager

	scheduler *cron.Cron
	api       *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with all dependencies wired.
func New(cfg *config.Config, db *store.DB, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || db == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	jobStore := jobs.NewStore(db)
	artifactStore := artifacts.NewStore(db, cfg, logger)
	dictStore := dictionary.NewStore(db)
	toolkit := media.NewToolkit(cfg)
	gateway := status.NewGateway(jobStore, cfg)

	comp := composer.New(toolkit, artifactStore, logger)
	res := resolver.New(cfg.Resolver)
	translator := translate.NewClient(cfg.Translation, logger)
	manager := lifecycle.NewManager(cfg, jobStore, dictStore, res, comp, translator, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "signcastd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		db:         db,
		jobs:       jobStore,
		artifacts:  artifactStore,
		dictionary: dictStore,
		gateway:    gateway,
		toolkit:    toolkit,
		lifecycle:  manager,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Gateway exposes the read side for status queries.
func (d *Daemon) Gateway() *status.Gateway {
	return d.gateway
}

// Start acquires the instance lock, refreshes the dictionary from the clip
// library, and launches workers, the sweep schedule, and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another signcast daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.refreshDictionary(runCtx); err != nil {
		d.releaseStart()
		return err
	}

	if err := d.lifecycle.Start(runCtx); err != nil {
		d.releaseStart()
		return fmt.Errorf("start lifecycle: %w", err)
	}

	if err := d.startScheduler(); err != nil {
		d.lifecycle.Stop()
		d.releaseStart()
		return err
	}

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.stopScheduler()
			d.lifecycle.Stop()
			d.releaseStart()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("signcast daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.db.Path()),
	)
	return nil
}

// Stop halts background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.stopScheduler()
	d.lifecycle.Stop()
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("signcast daemon stopped")
}

// Close stops the daemon and closes the database.
func (d *Daemon) Close() error {
	d.Stop()
	return d.db.Close()
}

func (d *Daemon) releaseStart() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

func (d *Daemon) refreshDictionary(ctx context.Context) error {
	result, err := d.dictionary.IngestLibrary(ctx, d.cfg.Paths.ClipLibraryDir, d.toolkit, d.logger)
	if err != nil {
		return fmt.Errorf("ingest clip library: %w", err)
	}
	d.logger.Info("clip library ingested",
		logging.Int("published", result.Published),
		logging.Int("duplicates", len(result.Duplicates)),
		logging.Int("failures", len(result.Failures)),
	)
	return nil
}

func (d *Daemon) startScheduler() error {
	schedule := d.cfg.Artifacts.SweepSchedule
	if schedule == "" {
		return nil
	}
	scheduler := cron.New()
	_, err := scheduler.AddFunc(schedule, d.runScheduledSweep)
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	scheduler.Start()
	d.scheduler = scheduler
	return nil
}

func (d *Daemon) runScheduledSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	result, err := d.artifacts.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		d.logger.Error("scheduled sweep failed", logging.Error(err))
		return
	}
	if result.Removed > 0 || result.Orphans > 0 || len(result.Failures) > 0 {
		d.logger.Info("scheduled sweep finished",
			logging.Int("removed", result.Removed),
			logging.Int("orphans", result.Orphans),
			logging.Int("failures", len(result.Failures)),
		)
	}
}

func (d *Daemon) stopScheduler() {
	if d.scheduler == nil {
		return
	}
	stopCtx := d.scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		d.logger.Warn("sweep jobs still running at shutdown")
	}
	d.scheduler = nil
}
