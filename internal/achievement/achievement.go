// Package achievement implements the Achievement Evaluator (C11): the fixed
// achievement catalog and the event-driven progress evaluation that upserts
// UserAchievement rows and flags newly-earned ones for notification.
package achievement

import (
	"time"

	"studyloop/internal/core"
	"studyloop/internal/logging"
	"studyloop/internal/store"
)

// Catalog is the fixed set of AchievementDefinitions seeded at startup.
// Thresholds are expressed in the same unit as the Counters field each
// evaluator below reads.
var Catalog = []core.AchievementDefinition{
	{Code: "streak_3", Category: core.AchievementStreak, ThresholdValue: 3, Points: 10, Rarity: "common"},
	{Code: "streak_7", Category: core.AchievementStreak, ThresholdValue: 7, Points: 25, Rarity: "uncommon", PrerequisiteCode: "streak_3"},
	{Code: "streak_30", Category: core.AchievementStreak, ThresholdValue: 30, Points: 100, Rarity: "rare", PrerequisiteCode: "streak_7"},
	{Code: "study_10h", Category: core.AchievementStudy, ThresholdValue: 10, Points: 15, Rarity: "common"},
	{Code: "study_100h", Category: core.AchievementStudy, ThresholdValue: 100, Points: 75, Rarity: "uncommon", PrerequisiteCode: "study_10h"},
	{Code: "study_500h", Category: core.AchievementStudy, ThresholdValue: 500, Points: 300, Rarity: "epic", PrerequisiteCode: "study_100h"},
	{Code: "deep_work_25", Category: core.AchievementStudy, ThresholdValue: 25, Points: 40, Rarity: "uncommon"},
	{Code: "revisions_10", Category: core.AchievementRevision, ThresholdValue: 10, Points: 20, Rarity: "common"},
	{Code: "revisions_100", Category: core.AchievementRevision, ThresholdValue: 100, Points: 150, Rarity: "rare", PrerequisiteCode: "revisions_10"},
	{Code: "tasks_50", Category: core.AchievementGoal, ThresholdValue: 50, Points: 30, Rarity: "common"},
	{Code: "tasks_250", Category: core.AchievementGoal, ThresholdValue: 250, Points: 120, Rarity: "rare", PrerequisiteCode: "tasks_50"},
	{Code: "mastery_100", Category: core.AchievementSpecial, ThresholdValue: 1, Points: 50, Rarity: "rare"},
}

// Counters are the current tallies the evaluator maps onto the catalog's
// thresholds. The engine assembles these from Store queries before calling
// Evaluate; none of them require new storage of their own.
type Counters struct {
	CurrentStreak         int
	TotalStudyHours       float64
	TotalDeepWorkSessions int
	TotalRevisionsDone    int
	TotalTasksCompleted   int
	AnyChapterMastered    bool
}

func progressFor(code string, c Counters) (progress, threshold float64) {
	switch code {
	case "streak_3":
		return float64(c.CurrentStreak), 3
	case "streak_7":
		return float64(c.CurrentStreak), 7
	case "streak_30":
		return float64(c.CurrentStreak), 30
	case "study_10h":
		return c.TotalStudyHours, 10
	case "study_100h":
		return c.TotalStudyHours, 100
	case "study_500h":
		return c.TotalStudyHours, 500
	case "deep_work_25":
		return float64(c.TotalDeepWorkSessions), 25
	case "revisions_10":
		return float64(c.TotalRevisionsDone), 10
	case "revisions_100":
		return float64(c.TotalRevisionsDone), 100
	case "tasks_50":
		return float64(c.TotalTasksCompleted), 50
	case "tasks_250":
		return float64(c.TotalTasksCompleted), 250
	case "mastery_100":
		if c.AnyChapterMastered {
			return 1, 1
		}
		return 0, 1
	default:
		return 0, 1
	}
}

// Evaluator wraps a Store with the C11 operation surface.
type Evaluator struct {
	store *store.Store
}

// New constructs an Evaluator over the given Store, seeding the catalog.
func New(s *store.Store) (*Evaluator, error) {
	if err := s.SeedAchievementDefinitions(Catalog); err != nil {
		return nil, err
	}
	return &Evaluator{store: s}, nil
}

// Earned describes one achievement that just crossed its threshold.
type Earned struct {
	Code   string
	Points int
}

// Evaluate runs the full catalog against the current counters, upserting
// every UserAchievement and returning the ones that newly completed on this
// call (spec.md §4.11: triggered on session stop, revision complete, task
// complete, streak update, or a daily tick).
func (e *Evaluator) Evaluate(now time.Time, c Counters) ([]Earned, error) {
	var earned []Earned
	for _, def := range Catalog {
		progress, threshold := progressFor(def.Code, c)
		ua, justCompleted, err := e.store.UpdateAchievementProgress(def.Code, progress, threshold, now)
		if err != nil {
			return nil, err
		}
		if justCompleted {
			earned = append(earned, Earned{Code: ua.Code, Points: def.Points})
			logging.Get(logging.CategoryAchievement).Info("achievement earned: %s (+%d pts)", ua.Code, def.Points)
		}
	}
	return earned, nil
}

// PendingNotifications returns earned-but-not-yet-notified achievements,
// for C10 to flush as `achievement` notifications.
func (e *Evaluator) PendingNotifications() ([]core.UserAchievement, error) {
	all, err := e.store.ListUserAchievements()
	if err != nil {
		return nil, err
	}
	var pending []core.UserAchievement
	for _, ua := range all {
		if ua.IsComplete && !ua.Notified {
			pending = append(pending, ua)
		}
	}
	return pending, nil
}

// MarkNotified flags an achievement's completion as delivered.
func (e *Evaluator) MarkNotified(code string) error {
	return e.store.MarkAchievementNotified(code)
}

// DefinitionByCode looks up a catalog entry, used to render notification text.
func DefinitionByCode(code string) (core.AchievementDefinition, bool) {
	for _, d := range Catalog {
		if d.Code == code {
			return d, true
		}
	}
	return core.AchievementDefinition{}, false
}
