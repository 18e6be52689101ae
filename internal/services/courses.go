package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/reframeapp/reframe/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	maxRecommendations = 3
	// recent rewrites considered when picking the dominant labels
	recommendationWindow = 100
)

type catalogEntry struct {
	course      models.Course
	environment string
	outcome     string
}

var courseCatalog = []catalogEntry{
	{models.Course{ID: "work-clarity", Title: "Clear Asks at Work", Description: "Turn vague requests into specific, time-bound asks your team can act on.", URL: "/courses/work-clarity"}, "Work", "Clarity"},
	{models.Course{ID: "work-boundaries", Title: "Saying No Without Burning Bridges", Description: "Protect your time while keeping working relationships warm.", URL: "/courses/work-boundaries"}, "Work", "Boundary"},
	{models.Course{ID: "work-influence", Title: "Persuasion for Busy Rooms", Description: "Frame proposals so decision makers can say yes quickly.", URL: "/courses/work-influence"}, "Work", "Influence"},
	{models.Course{ID: "family-connection", Title: "Reconnecting at Home", Description: "Small phrasing shifts that invite family members back into conversation.", URL: "/courses/family-connection"}, "Family", "Connection"},
	{models.Course{ID: "family-resolution", Title: "Calm Family Disagreements", Description: "De-escalate recurring arguments and land on shared next steps.", URL: "/courses/family-resolution"}, "Family", "Resolution"},
	{models.Course{ID: "romantic-connection", Title: "Speaking From the Heart", Description: "Express needs to a partner without blame.", URL: "/courses/romantic-connection"}, "Romantic", "Connection"},
	{models.Course{ID: "friends-boundaries", Title: "Boundaries With Friends", Description: "Keep friendships healthy while saying what you need.", URL: "/courses/friends-boundaries"}, "Friends", "Boundary"},
	{models.Course{ID: "apology", Title: "Apologies That Land", Description: "Own the impact, skip the excuses, and repair trust.", URL: "/courses/apology"}, "", "Apology"},
	{models.Course{ID: "clarity", Title: "Say It Once, Say It Clearly", Description: "Structure any message around a single point and a single ask.", URL: "/courses/clarity"}, "", "Clarity"},
	{models.Course{ID: "work-foundations", Title: "Workplace Communication Foundations", Description: "Tone, timing, and channel choices for everyday work messages.", URL: "/courses/work-foundations"}, "Work", ""},
	{models.Course{ID: "foundations", Title: "The Five Pillars", Description: "Intent, message, position, action and calibration, explained with examples.", URL: "/courses/foundations"}, "", ""},
}

type CourseService struct {
	rewrites models.RewriteRepository
	logger   *logrus.Logger
}

func NewCourseService(rewrites models.RewriteRepository, logger *logrus.Logger) *CourseService {
	return &CourseService{rewrites: rewrites, logger: logger}
}

// Recommend picks courses matching the user's most frequent environment and
// outcome across recent history. Explicit labels count over inferred ones.
func (s *CourseService) Recommend(ctx context.Context, userID string) (*models.CourseRecommendation, error) {
	history, err := s.rewrites.ListByUser(ctx, userID, recommendationWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	envCounts := make(map[string]int)
	outcomeCounts := make(map[string]int)
	for _, r := range history {
		if env := firstLabel(r.Environment, r.InferredEnvironment); env != "" {
			envCounts[env]++
		}
		if outcome := firstLabel(r.Outcome, r.InferredOutcome); outcome != "" {
			outcomeCounts[outcome]++
		}
	}

	env := mostFrequent(envCounts)
	outcome := mostFrequent(outcomeCounts)

	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"history":     len(history),
		"environment": env,
		"outcome":     outcome,
	}).Debug("Recommending courses")

	return &models.CourseRecommendation{
		Environment: env,
		Outcome:     outcome,
		Courses:     RankCourses(env, outcome),
	}, nil
}

// RankCourses returns at most three catalog courses whose labels do not
// conflict with env and outcome. Matching both labels ranks first, then
// outcome, then environment, then general courses.
func RankCourses(env, outcome string) []models.Course {
	type scored struct {
		course models.Course
		score  int
	}

	var candidates []scored
	for _, entry := range courseCatalog {
		if entry.environment != "" && entry.environment != env {
			continue
		}
		if entry.outcome != "" && entry.outcome != outcome {
			continue
		}
		score := 0
		if entry.outcome != "" {
			score += 2
		}
		if entry.environment != "" {
			score++
		}
		candidates = append(candidates, scored{course: entry.course, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	courses := make([]models.Course, 0, maxRecommendations)
	for _, c := range candidates {
		if len(courses) == maxRecommendations {
			break
		}
		courses = append(courses, c.course)
	}
	return courses
}

func firstLabel(explicit, inferred *string) string {
	if explicit != nil && *explicit != "" {
		return *explicit
	}
	if inferred != nil {
		return *inferred
	}
	return ""
}

// mostFrequent breaks ties alphabetically.
func mostFrequent(counts map[string]int) string {
	best, bestCount := "", 0
	for label, n := range counts {
		if n > bestCount || (n == bestCount && label < best) {
			best, bestCount = label, n
		}
	}
	return best
}
