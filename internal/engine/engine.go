// Package engine is the orchestration layer (§2's "Orchestration" section
// of SPEC_FULL.md): it owns the Store and every component instance, runs
// the cancellation-aware background loops of spec.md §5 under an
// errgroup.Group, and implements the §6 operation surface any front-end
// (CLI, HTTP, chat) calls through.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"studyloop/internal/achievement"
	"studyloop/internal/config"
	"studyloop/internal/core"
	"studyloop/internal/energy"
	"studyloop/internal/logging"
	"studyloop/internal/notify"
	"studyloop/internal/store"
	"studyloop/internal/timer"
	"studyloop/internal/wellbeing"
)

var (
	subjectCodePattern = regexp.MustCompile(`^[A-Z]{2,5}[0-9]{3}$`)
	chapterSlugPattern = regexp.MustCompile(`^chapter[0-9]{2}$`)
)

// plannerMu is the package-level "Placer-wide mutex" spec.md §5 asks for on
// top of the Store's own double-check-on-write, serializing interleaving
// TimelineOptimize/PlannerBackward runs so their placements can never race.
var plannerMu sync.Mutex

// Engine wires every component over one Store and runs the background
// loops that keep wellbeing, notifications, and achievements current.
type Engine struct {
	Store       *store.Store
	Config      *config.Config
	configPath  string
	watcher     *config.Watcher

	Timer       *timer.Timer
	Notify      *notify.Engine
	Wellbeing   *wellbeing.Monitor
	Achievement *achievement.Evaluator

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New constructs an Engine over a Store at dbPath and configuration at
// configPath (defaults applied if either is absent).
func New(dbPath, configPath string) (*Engine, error) {
	s, err := store.New(dbPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		s.Close()
		return nil, err
	}
	ach, err := achievement.New(s)
	if err != nil {
		s.Close()
		return nil, err
	}
	eng := &Engine{
		Store:       s,
		Config:      cfg,
		configPath:  configPath,
		Timer:       timer.New(s),
		Wellbeing:   wellbeing.New(s),
		Achievement: ach,
	}
	eng.Notify = notify.New(s, ach, uuid.NewString)

	for _, pref := range cfg.Notifications {
		if err := s.SaveNotificationPreference(pref); err != nil {
			s.Close()
			return nil, err
		}
	}

	watcher, err := config.NewWatcher(configPath, eng.reloadConfig)
	if err != nil {
		s.Close()
		return nil, err
	}
	eng.watcher = watcher
	return eng, nil
}

func (e *Engine) reloadConfig(cfg *config.Config) {
	logging.Get(logging.CategoryEngine).Info("configuration reloaded from %s", e.configPath)
	e.Config = cfg
}

// Start launches the config watcher and the C9/C10/C11 background loops,
// each supervised by an errgroup.Group under ctx. Loop bodies recover from
// panics and log-and-continue per spec.md §7; a canceled ctx lets each loop
// finish its in-flight Store call before returning (spec.md §5).
func (e *Engine) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	g, gctx := errgroup.WithContext(loopCtx)
	e.group = g

	if err := e.watcher.Start(gctx); err != nil {
		cancel()
		return fmt.Errorf("start config watcher: %w", err)
	}

	g.Go(func() error { e.runWellbeingLoop(gctx); return nil })
	g.Go(func() error { e.runNotifyLoop(gctx); return nil })
	g.Go(func() error { e.runAchievementLoop(gctx); return nil })

	logging.Get(logging.CategoryEngine).Info("engine started")
	return nil
}

// Shutdown cancels all background loops, waits for them to drain, stops the
// config watcher, and closes the Store.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}
	if e.group != nil {
		_ = e.group.Wait()
	}
	if e.watcher != nil {
		e.watcher.Stop()
	}
	logging.Get(logging.CategoryEngine).Info("engine stopped")
	return e.Store.Close()
}

func (e *Engine) runWellbeingLoop(ctx context.Context) {
	defer safeguard("wellbeing loop")
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer safeguard("wellbeing tick")
				if _, err := e.Wellbeing.EvaluateToday(time.Now(), e.overdueTaskCount()); err != nil {
					logging.Get(logging.CategoryWellbeing).Error("daily wellbeing tick failed: %v", err)
				}
			}()
		}
	}
}

func (e *Engine) runNotifyLoop(ctx context.Context) {
	defer safeguard("notify loop")
	ticker := time.NewTicker(notify.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer safeguard("notify scan")
				now := time.Now()
				if err := e.Notify.Scan(now); err != nil {
					logging.Get(logging.CategoryNotify).Error("notification scan failed: %v", err)
				}
				if err := e.Notify.DeliverDueScheduled(now); err != nil {
					logging.Get(logging.CategoryNotify).Error("deferred delivery failed: %v", err)
				}
			}()
		}
	}
}

func (e *Engine) runAchievementLoop(ctx context.Context) {
	defer safeguard("achievement loop")
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer safeguard("achievement tick")
				if _, err := e.AchievementsCheck(time.Now()); err != nil {
					logging.Get(logging.CategoryAchievement).Error("achievement tick failed: %v", err)
				}
			}()
		}
	}
}

// safeguard implements spec.md §7's "background loops log and continue;
// they never crash the process" as a deferred recover.
func safeguard(loop string) {
	if r := recover(); r != nil {
		logging.Get(logging.CategoryEngine).Error("%s panicked, recovering: %v", loop, r)
	}
}

// OverdueTaskCount reports how many pending tasks have a scheduled start
// already in the past, the overdue_tasks input to the wellbeing score.
func (e *Engine) OverdueTaskCount() int {
	return e.overdueTaskCount()
}

func (e *Engine) overdueTaskCount() int {
	tasks, err := e.Store.ListPendingTasks()
	if err != nil {
		return 0
	}
	now := time.Now()
	n := 0
	for _, t := range tasks {
		if t.ScheduledStart != nil && t.ScheduledStart.Before(now) {
			n++
		}
	}
	return n
}

// validateSubjectCode enforces spec.md §6's naming rule.
func validateSubjectCode(code string) error {
	if !subjectCodePattern.MatchString(code) {
		return core.NewError(core.KindValidation, "engine.validateSubjectCode", "subject code must match [A-Z]{2,5}[0-9]{3}", nil)
	}
	return nil
}

// validateChapterSlug enforces spec.md §6's naming rule.
func validateChapterSlug(slug string) error {
	if !chapterSlugPattern.MatchString(slug) {
		return core.NewError(core.KindValidation, "engine.validateChapterSlug", "chapter slug must match chapter[0-9]{2}", nil)
	}
	return nil
}

func (e *Engine) energyCurve() energy.Curve {
	return energy.Curve(e.Config.EnergyCurve)
}

func (e *Engine) classesFor(day time.Time) []config.Class {
	return e.Config.Timetable[day.Weekday().String()]
}
