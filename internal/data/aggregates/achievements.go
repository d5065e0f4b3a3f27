package aggregates

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

const (
	MetricCompletedCourses = "completed_courses"
	MetricCurrentStreak    = "current_streak"
)

//go:embed rules/achievements.yaml
var defaultAchievementRulesYAML []byte

type AchievementRule struct {
	Kind      string `yaml:"kind"`
	Title     string `yaml:"title"`
	Metric    string `yaml:"metric"`
	Threshold int    `yaml:"threshold"`
}

type achievementRuleFile struct {
	Rules []AchievementRule `yaml:"rules"`
}

// ParseAchievementRules decodes and validates a rule table.
func ParseAchievementRules(raw []byte) ([]AchievementRule, error) {
	var f achievementRuleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse achievement rules: %w", err)
	}
	seen := map[string]bool{}
	for i, r := range f.Rules {
		r.Kind = strings.TrimSpace(r.Kind)
		if r.Kind == "" {
			return nil, fmt.Errorf("achievement rule %d: missing kind", i)
		}
		if seen[r.Kind] {
			return nil, fmt.Errorf("achievement rule %q: duplicate kind", r.Kind)
		}
		seen[r.Kind] = true
		if r.Metric != MetricCompletedCourses && r.Metric != MetricCurrentStreak {
			return nil, fmt.Errorf("achievement rule %q: unknown metric %q", r.Kind, r.Metric)
		}
		if r.Threshold < 1 {
			return nil, fmt.Errorf("achievement rule %q: threshold must be >= 1", r.Kind)
		}
		f.Rules[i] = r
	}
	return f.Rules, nil
}

// DefaultAchievementRules returns the embedded rule table.
func DefaultAchievementRules() []AchievementRule {
	rules, err := ParseAchievementRules(defaultAchievementRulesYAML)
	if err != nil {
		panic(err)
	}
	return rules
}

// AchievementEvaluator awards achievements whose thresholds are met. Awards
// are insert-or-skip and never revoked.
type AchievementEvaluator struct {
	Rules        []AchievementRule
	Enrollments  repos.EnrollmentRepo
	Achievements repos.AchievementRepo
	Log          *logger.Logger
}

// Evaluate awards every rule met by the user's completed course count and
// currentStreak. Returns the kinds newly unlocked by this call.
func (e AchievementEvaluator) Evaluate(dbc dbctx.Context, userID uuid.UUID, currentStreak int) ([]string, error) {
	if len(e.Rules) == 0 {
		return nil, nil
	}
	completed, err := e.Enrollments.CountCompletedByUserID(dbc, userID)
	if err != nil {
		return nil, err
	}
	metrics := map[string]int{
		MetricCompletedCourses: completed,
		MetricCurrentStreak:    currentStreak,
	}
	var unlocked []string
	for _, r := range e.Rules {
		if metrics[r.Metric] < r.Threshold {
			continue
		}
		created, err := e.Achievements.CreateIfAbsent(dbc, userID, r.Kind)
		if err != nil {
			return nil, err
		}
		if created {
			unlocked = append(unlocked, r.Kind)
			if e.Log != nil {
				e.Log.Info("achievement unlocked", "user_id", userID, "kind", r.Kind)
			}
		}
	}
	return unlocked, nil
}
