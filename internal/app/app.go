package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"academy/content"
	"academy/internal/auth"
	"academy/internal/catalog"
	"academy/internal/devtools"
	"academy/internal/progress"
	"academy/internal/remote"
	"academy/internal/state"
	"academy/internal/telemetry"
	"academy/internal/ui"
)

const (
	localTimeout     = 2 * time.Second
	reconcileTimeout = 20 * time.Second
	flushTimeout     = 5 * time.Second
	syncPollInterval = time.Second

	settingStyle  = "ui.style_variant"
	settingMotion = "ui.motion_level"
)

type App struct {
	cfg       Config
	logger    *telemetry.Logger
	sessionID string
	now       func() time.Time

	local    LocalStore
	catalog  *catalog.Catalog
	syncer   *progress.Syncer
	progress *progress.Store
	gate     *auth.Gate
	watcher  *progress.IdentityWatcher
	view     ui.View
	dev      *devtools.Server
	closers  []func() error
	unsubs   []func()

	mu          sync.Mutex
	screen      ui.Screen
	levelID     string
	lessonID    string
	syncStarted bool
	closed      bool
}

// deps are the collaborators assemble wires together. Tests build them by
// hand; open builds them from Config.
type deps struct {
	cfg      Config
	logger   *telemetry.Logger
	session  string
	local    LocalStore
	catalog  *catalog.Catalog
	remote   progress.Remote
	provider auth.Provider
	tokens   *auth.TokenParser
	view     ui.View
	now      func() time.Time
	closers  []func() error
}

// New builds the interactive app from a validated config.
func New(ctx context.Context, cfg Config) (*App, error) {
	return open(ctx, cfg, true)
}

// Open builds the app without a terminal UI, for one-shot commands.
func Open(ctx context.Context, cfg Config) (*App, error) {
	return open(ctx, cfg, false)
}

func open(ctx context.Context, cfg Config, interactive bool) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger, err := telemetry.NewLogger(cfg.LogPath, cfg.DevLogs)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	sessionID := uuid.NewString()
	logger = logger.With(map[string]any{"session": sessionID})

	d := deps{cfg: cfg, logger: logger, session: sessionID}
	fail := func(err error) (*App, error) {
		for i := len(d.closers) - 1; i >= 0; i-- {
			_ = d.closers[i]()
		}
		logger.Error("app.open_failed", map[string]any{"error": err.Error()})
		_ = logger.Close()
		return nil, err
	}

	db, err := state.NewSQLite(filepath.Join(cfg.DataDir, "academy.db"))
	if err != nil {
		return fail(fmt.Errorf("open local store: %w", err))
	}
	d.closers = append(d.closers, db.Close)
	if err := db.EnsureSchema(ctx); err != nil {
		return fail(fmt.Errorf("prepare local store: %w", err))
	}
	d.local = db

	cat, err := LoadCatalog(ctx, cfg.ContentDir)
	if err != nil {
		return fail(err)
	}
	d.catalog = cat

	var a *App
	token := func() string {
		if a == nil {
			return ""
		}
		return a.gate.AccessToken()
	}
	rem, closeRemote, err := openRemote(ctx, cfg, sessionID, token)
	if err != nil {
		return fail(err)
	}
	if closeRemote != nil {
		d.closers = append(d.closers, closeRemote)
	}
	d.remote = rem

	if cfg.Auth.URL != "" {
		d.provider = auth.NewGoTrue(cfg.Auth.URL, cfg.Auth.APIKey, cfg.Remote.Timeout)
		d.tokens = auth.NewTokenParser(cfg.Auth.JWTSecret)
	}

	if interactive {
		d.cfg.UI = resolveUI(ctx, db, cfg.UI, logger)
		d.view = ui.New(ui.Options{
			ASCIIOnly:    cfg.ASCIIOnly,
			Debug:        cfg.DebugLayout,
			StyleVariant: d.cfg.UI.StyleVariant,
			MotionLevel:  d.cfg.UI.MotionLevel,
		})
	} else {
		d.view = headlessView{}
	}

	a = assemble(d)
	return a, nil
}

// LoadCatalog reads the course from dir, or the built-in course when dir is
// empty.
func LoadCatalog(ctx context.Context, dir string) (*catalog.Catalog, error) {
	var fsys fs.FS = content.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	cat, err := catalog.NewLoader().Load(ctx, fsys)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	return cat, nil
}

func openRemote(ctx context.Context, cfg Config, sessionID string, token remote.TokenSource) (progress.Remote, func() error, error) {
	switch cfg.Remote.Backend {
	case "memory":
		return remote.NewMemory(), nil, nil
	case "postgres":
		pool, err := remote.NewPool(ctx, cfg.Remote.DatabaseURL, remote.PoolConfig{MaxConns: 4, MaxConnLifetime: time.Hour})
		if err != nil {
			return nil, nil, fmt.Errorf("connect remote progress: %w", err)
		}
		pg := remote.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("prepare remote progress: %w", err)
		}
		return pg, pg.Close, nil
	case "rest":
		return remote.NewREST(remote.RESTOptions{
			BaseURL:   cfg.Remote.URL,
			APIKey:    cfg.Remote.APIKey,
			Token:     token,
			RequestID: sessionID,
			Timeout:   cfg.Remote.Timeout,
		}), nil, nil
	default:
		return nil, nil, nil
	}
}

// resolveUI fills unset UI options from the last run and remembers the
// result for the next one.
func resolveUI(ctx context.Context, local LocalStore, want UIConfig, logger *telemetry.Logger) UIConfig {
	saved, err := local.LoadSettings(ctx)
	if err != nil {
		logger.Debug("settings.load_failed", map[string]any{"error": err.Error()})
	}
	if want.StyleVariant == "" {
		want.StyleVariant = saved[settingStyle]
	}
	if want.MotionLevel == "" {
		want.MotionLevel = saved[settingMotion]
	}
	if want.StyleVariant == "" {
		want.StyleVariant = "modern_arcade"
	}
	if want.MotionLevel == "" {
		want.MotionLevel = "full"
	}
	if err := local.SaveSettings(ctx, map[string]string{
		settingStyle:  want.StyleVariant,
		settingMotion: want.MotionLevel,
	}); err != nil {
		logger.Debug("settings.save_failed", map[string]any{"error": err.Error()})
	}
	return want
}

func assemble(d deps) *App {
	now := d.now
	if now == nil {
		now = time.Now
	}
	a := &App{
		cfg:       d.cfg,
		logger:    d.logger,
		sessionID: d.session,
		now:       now,
		local:     d.local,
		catalog:   d.catalog,
		view:      d.view,
		closers:   d.closers,
		screen:    ui.ScreenHome,
	}
	if d.remote != nil {
		policy := progress.DefaultSyncPolicy()
		policy.Retries = d.cfg.Remote.Retries
		policy.Timeout = d.cfg.Remote.Timeout
		a.syncer = progress.NewSyncer(d.remote, d.logger, policy)
	}

	var local progress.LocalStorage
	var sessions auth.SessionStore
	if d.local != nil {
		local = d.local
		sessions = d.local
	}
	a.progress = progress.NewStore(progress.Options{
		Catalog: d.catalog,
		Local:   local,
		Remote:  d.remote,
		Syncer:  a.syncer,
		Logger:  d.logger,
	})
	a.gate = auth.NewGate(auth.Options{
		Provider: d.provider,
		Sessions: sessions,
		Tokens:   d.tokens,
		Logger:   d.logger,
		Now:      now,
	})
	a.watcher = progress.NewIdentityWatcher(a.progress)

	if d.cfg.DevAddr != "" {
		var status devtools.SyncStatus
		if a.syncer != nil {
			status = a.syncer
		}
		a.dev = devtools.New(devtools.Options{
			Addr:     d.cfg.DevAddr,
			Catalog:  d.catalog,
			Progress: a.progress,
			Accounts: a.gate,
			Sync:     status,
			Logger:   d.logger,
		})
	}

	a.unsubs = append(a.unsubs,
		a.progress.Subscribe(a.refresh),
		a.gate.Subscribe(a.onIdentity),
	)

	a.view.SetController(a)
	a.view.SetCheatSheet(d.catalog.CheatSheet)
	a.view.SetAccount(accountState(a.gate.State(), a.gate.Available()))
	a.view.SetSync(a.syncState())
	a.view.SetHome(a.homeState())
	a.view.SetScreen(ui.ScreenHome)
	return a
}

// Prepare starts the remote writer and restores the saved session, which
// reconciles progress for the signed-in account. Run calls it; one-shot
// commands call it directly.
func (a *App) Prepare(ctx context.Context) {
	a.startSyncer(ctx)
	rctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()
	a.gate.Restore(rctx)
}

// Run shows the UI until the learner quits or ctx is cancelled. The dev API
// and the sync status poller run alongside it.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.logger.Info("app.start", map[string]any{
		"remote":  a.cfg.Remote.Backend,
		"auth":    a.gate.Available(),
		"dev_api": a.cfg.DevAddr,
		"lessons": a.catalog.TotalLessons(),
	})

	viewDone := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Prepare(gctx)
		return nil
	})
	if a.syncer != nil {
		g.Go(func() error {
			a.watchSync(gctx)
			return nil
		})
	}
	if a.dev != nil {
		g.Go(func() error {
			return a.dev.Run(gctx)
		})
	}
	g.Go(func() error {
		defer close(viewDone)
		defer cancel()
		return a.view.Run()
	})
	g.Go(func() error {
		select {
		case <-viewDone:
			return nil
		case <-gctx.Done():
		}
		// Stop is a no-op until the program is running, so keep asking.
		for {
			a.view.Stop()
			select {
			case <-viewDone:
				return nil
			case <-time.After(50 * time.Millisecond):
			}
		}
	})
	err := g.Wait()
	a.logger.Info("app.stopped", map[string]any{"error": errString(err)})
	return err
}

// Close flushes pending remote writes and releases every resource.
func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	started := a.syncStarted
	a.mu.Unlock()

	for _, unsub := range a.unsubs {
		unsub()
	}
	if a.dev != nil {
		a.dev.Close()
	}
	if a.syncer != nil {
		if started {
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			if err := a.syncer.Flush(ctx); err != nil {
				a.logger.Warn("sync.flush_incomplete", map[string]any{"error": err.Error(), "pending": a.syncer.Status().Pending})
			}
			cancel()
		}
		a.syncer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("app.close_failed", map[string]any{"error": err.Error()})
		}
	}
	_ = a.logger.Close()
}

// Progress exposes the store for one-shot commands.
func (a *App) Progress() *progress.Store { return a.progress }

func (a *App) Catalog() *catalog.Catalog { return a.catalog }

func (a *App) Account() auth.State { return a.gate.State() }

func (a *App) SyncStatus() progress.SyncStatus { return a.syncer.Status() }

// startSyncer runs the writer on a context that outlives ctx so Close can
// drain it after the UI has gone.
func (a *App) startSyncer(ctx context.Context) {
	if a.syncer == nil {
		return
	}
	a.mu.Lock()
	if a.syncStarted || a.closed {
		a.mu.Unlock()
		return
	}
	a.syncStarted = true
	a.mu.Unlock()
	a.syncer.Start(context.WithoutCancel(ctx))
}

func (a *App) watchSync(ctx context.Context) {
	t := time.NewTicker(syncPollInterval)
	defer t.Stop()
	last := a.syncer.Status()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := a.syncer.Status()
			if st != last {
				last = st
				a.view.SetSync(a.syncState())
			}
		}
	}
}

// onIdentity mirrors the account into the UI and reconciles progress when
// the signed-in user changes.
func (a *App) onIdentity(st auth.State) {
	a.view.SetAccount(accountState(st, a.gate.Available()))
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	if a.watcher.Observe(ctx, progress.Identity{UserID: st.UserID, Loading: st.Loading}) {
		a.logger.Info("app.identity_changed", map[string]any{"signed_in": st.SignedIn()})
	}
}

// refresh re-reads the store into whatever the learner is looking at.
func (a *App) refresh() {
	screen, levelID, lessonID := a.location()
	a.view.SetHome(a.homeState())
	switch screen {
	case ui.ScreenLevel:
		if st, ok := a.levelState(levelID); ok {
			a.view.SetLevel(st)
		}
	case ui.ScreenLesson:
		if st, ok := a.lessonState(levelID, lessonID); ok {
			a.view.SetLesson(st)
		}
	}
	a.view.SetSync(a.syncState())
}

func (a *App) location() (ui.Screen, string, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen, a.levelID, a.lessonID
}

func (a *App) setLocation(screen ui.Screen, levelID, lessonID string) {
	a.mu.Lock()
	a.screen, a.levelID, a.lessonID = screen, levelID, lessonID
	a.mu.Unlock()
}

func (a *App) recordVisit(levelID, lessonID string) {
	if a.local == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), localTimeout)
	defer cancel()
	if err := a.local.RecordVisit(ctx, levelID, lessonID, a.now()); err != nil {
		a.logger.Debug("app.visit_record_failed", map[string]any{"lesson": lessonID, "error": err.Error()})
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// headlessView discards UI updates for one-shot commands.
type headlessView struct{}

func (headlessView) Run() error                   { return nil }
func (headlessView) Stop()                        {}
func (headlessView) SetController(ui.Controller)  {}
func (headlessView) SetScreen(ui.Screen)          {}
func (headlessView) SetHome(ui.HomeState)         {}
func (headlessView) SetLevel(ui.LevelState)       {}
func (headlessView) SetLesson(ui.LessonState)     {}
func (headlessView) SetCheatSheet(catalog.Blocks) {}
func (headlessView) SetAccount(ui.AccountState)   {}
func (headlessView) SetSync(ui.SyncState)         {}
func (headlessView) SetMenuOpen(bool)             {}
func (headlessView) SetSignInOpen(bool)           {}
func (headlessView) SetResetConfirmOpen(bool)     {}
func (headlessView) FlashStatus(string)           {}

var (
	_ ui.View       = headlessView{}
	_ ui.View       = (*ui.Root)(nil)
	_ ui.Controller = (*App)(nil)
)
