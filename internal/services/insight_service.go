package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInsightNotFound = errors.New("insight not found")
	ErrInsightNotLive  = errors.New("insight is already dismissed, applied or expired")
	ErrNoSnapshot      = errors.New("no weekly snapshot to generate insights from")
)

// InsightService applies a fixed rule set over a weekly snapshot to
// produce prioritized recommendations.
type InsightService struct {
	db            *gorm.DB
	strictPersist bool
	ttl           time.Duration
}

func NewInsightService(db *gorm.DB, strictPersist bool, ttl time.Duration) *InsightService {
	return &InsightService{db: db, strictPersist: strictPersist, ttl: ttl}
}

// priorityOrder sorts high before medium before low in SQL.
const priorityOrder = "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at DESC"

// Live returns the user's live insights: not dismissed, not applied, not
// expired, ordered by priority then recency.
func (s *InsightService) Live(userID uuid.UUID, now time.Time) ([]models.Insight, error) {
	var insights []models.Insight
	err := s.db.Where("user_id = ? AND dismissed = false AND applied = false AND expires_at > ?", userID, now).
		Order(priorityOrder).
		Find(&insights).Error
	return insights, err
}

// GetOrGenerate returns the cached live insights, generating a fresh set
// from the week's snapshot only when none exist or force is set. Force
// first deletes the targeted week's insights.
func (s *InsightService) GetOrGenerate(userID uuid.UUID, weekStart *time.Time, asOf time.Time, force bool) ([]models.Insight, error) {
	if !force {
		live, err := s.Live(userID, asOf)
		if err != nil {
			return nil, fmt.Errorf("failed to query live insights: %w", err)
		}
		if len(live) > 0 {
			return live, nil
		}
	}

	snapshot, err := s.snapshotForWeek(userID, weekStart)
	if err != nil {
		return nil, err
	}

	if force {
		if err := s.db.Where("user_id = ? AND week_start = ?", userID, snapshot.WeekStart).
			Delete(&models.Insight{}).Error; err != nil {
			return nil, fmt.Errorf("failed to clear insights for regeneration: %w", err)
		}
	}

	insights := buildInsights(snapshot, asOf, s.ttl)
	if len(insights) == 0 {
		return insights, nil
	}

	if err := s.db.CreateInBatches(insights, 20).Error; err != nil {
		if s.strictPersist {
			return nil, fmt.Errorf("failed to persist insights: %w", err)
		}
		// Best-effort mode: the caller still gets the generated list, but
		// the store now lags what was returned.
		slog.Error("insight persistence failed, returning unpersisted set",
			"stage", "insights", "user_id", userID.String(), "count", len(insights), "error", err)
	}

	return s.sortGenerated(userID, asOf, insights), nil
}

// sortGenerated re-reads the persisted set ordered by priority; if the
// write failed in best-effort mode the in-memory list is returned as-is
// (builders already emit rules in priority-compatible order).
func (s *InsightService) sortGenerated(userID uuid.UUID, asOf time.Time, fallback []models.Insight) []models.Insight {
	live, err := s.Live(userID, asOf)
	if err != nil || len(live) == 0 {
		return fallback
	}
	return live
}

// Dismiss transitions a live insight to its terminal dismissed state.
func (s *InsightService) Dismiss(userID, insightID uuid.UUID) (*models.Insight, error) {
	return s.transition(userID, insightID, "dismissed", "dismissed_at")
}

// Apply transitions a live insight to its terminal applied state.
func (s *InsightService) Apply(userID, insightID uuid.UUID) (*models.Insight, error) {
	return s.transition(userID, insightID, "applied", "applied_at")
}

func (s *InsightService) transition(userID, insightID uuid.UUID, flag, stampCol string) (*models.Insight, error) {
	var insight models.Insight
	if err := s.db.Where("id = ? AND user_id = ?", insightID, userID).First(&insight).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsightNotFound
		}
		return nil, err
	}

	if insight.Dismissed || insight.Applied || time.Now().After(insight.ExpiresAt) {
		return nil, ErrInsightNotLive
	}

	now := time.Now().UTC()
	if err := s.db.Model(&insight).Updates(map[string]interface{}{
		flag:     true,
		stampCol: now,
	}).Error; err != nil {
		return nil, err
	}

	if flag == "dismissed" {
		insight.Dismissed = true
		insight.DismissedAt = &now
	} else {
		insight.Applied = true
		insight.AppliedAt = &now
	}
	return &insight, nil
}

func (s *InsightService) snapshotForWeek(userID uuid.UUID, weekStart *time.Time) (*models.WeeklySnapshot, error) {
	q := s.db.Where("user_id = ?", userID)
	if weekStart != nil {
		q = q.Where("week_start = ?", DateOnly(*weekStart))
	}
	var snapshot models.WeeklySnapshot
	if err := q.Order("week_start DESC").First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return &snapshot, nil
}

// buildInsights evaluates the fixed rule set against a snapshot. Rules are
// independent; any subset may fire. Evaluation order is fixed, storage
// order is by priority.
func buildInsights(snap *models.WeeklySnapshot, asOf time.Time, ttl time.Duration) []models.Insight {
	expiry := asOf.Add(ttl)
	var out []models.Insight

	add := func(insightType, priority, title, description, evidence, actionLabel, actionType string, payload map[string]interface{}, habitID *uuid.UUID) {
		b, _ := json.Marshal(payload)
		out = append(out, models.Insight{
			ID:            uuid.New(),
			UserID:        snap.UserID,
			Type:          insightType,
			Priority:      priority,
			Title:         title,
			Description:   description,
			Evidence:      evidence,
			ActionLabel:   actionLabel,
			ActionType:    actionType,
			ActionPayload: datatypes.JSON(b),
			HabitID:       habitID,
			WeekStart:     snap.WeekStart,
			ExpiresAt:     expiry,
		})
	}

	// Rule 1: under 50% completion.
	if snap.CompletionPct < 50 {
		add(models.InsightTypeWeekly, models.PriorityHigh,
			"Tough week — let's lighten the load",
			"You completed less than half of your habit days. Evening habits are usually the first to slip; moving one or two earlier in the day can break the pattern.",
			fmt.Sprintf("Weekly completion was %d%%.", snap.CompletionPct),
			"Move evening habits earlier",
			models.ActionReschedule,
			map[string]interface{}{"from": models.MomentEvening, "to": models.MomentMorning},
			nil)
	}

	// Rule 2: over 80% completion.
	if snap.CompletionPct > 80 {
		add(models.InsightTypeWeekly, models.PriorityMedium,
			"Strong week — ready for more?",
			"You kept up with nearly everything. This is a good moment to add a new habit or raise the dose on an existing one.",
			fmt.Sprintf("Weekly completion was %d%%.", snap.CompletionPct),
			"Add a challenge",
			models.ActionAddChallenge,
			map[string]interface{}{"completion_pct": snap.CompletionPct},
			nil)
	}

	// Rule 3: streak recovery.
	if snap.CurrentStreak > 0 && snap.CurrentStreak < snap.BestStreak {
		add(models.InsightTypePattern, models.PriorityMedium,
			"Your streak is rebuilding",
			fmt.Sprintf("You're %d days in, and your best run is %d. Keeping today is the only step that matters.", snap.CurrentStreak, snap.BestStreak),
			fmt.Sprintf("Current streak %d, best streak %d.", snap.CurrentStreak, snap.BestStreak),
			"Protect today's checkin",
			models.ActionStreakRecovery,
			map[string]interface{}{"current_streak": snap.CurrentStreak, "target_streak": snap.BestStreak},
			nil)
	}

	// Rule 4: moment imbalance.
	if snap.BestMoment != "" && snap.WorstMoment != "" && snap.BestMoment != snap.WorstMoment {
		add(models.InsightTypePattern, models.PriorityMedium,
			fmt.Sprintf("Your %s habits need attention", snap.WorstMoment),
			fmt.Sprintf("You complete far more in the %s than the %s. Consider moving a struggling habit into your stronger window.", snap.BestMoment, snap.WorstMoment),
			fmt.Sprintf("Best moment %s, worst moment %s.", snap.BestMoment, snap.WorstMoment),
			fmt.Sprintf("Rework your %s routine", snap.WorstMoment),
			models.ActionReschedule,
			map[string]interface{}{"from": snap.WorstMoment, "to": snap.BestMoment},
			nil)
	}

	// Rule 5: single worst habit. The struggling list is ordered
	// worst-first, so the first entry names the habit.
	if len(snap.StrugglingHabits) > 0 {
		var habitID *uuid.UUID
		if parsed, err := uuid.Parse(snap.StrugglingHabits[0]); err == nil {
			habitID = &parsed
		}
		add(models.InsightTypeHabit, models.PriorityHigh,
			"One habit is holding you back",
			"Your weakest habit barely got done this week. Shrinking it to a smaller dose makes it easier to keep the chain going.",
			fmt.Sprintf("%d habit(s) fell well behind the rest.", len(snap.StrugglingHabits)),
			"Make it easier",
			models.ActionAdjustDifficulty,
			map[string]interface{}{"habit_id": snap.StrugglingHabits[0], "direction": "down"},
			habitID)
	}

	return out
}
