package matcher

import (
	"math"
	"strings"

	"github.com/hirestack/resume-screener/internal/extractor"
)

const (
	RecommendationPending     = "Pending"
	RecommendationShortlisted = "Shortlisted"
	RecommendationHumanReview = "Human Review"
	RecommendationRejected    = "Rejected"
)

// MatchResult is the scoring output. Recommendation starts at the
// "Pending" sentinel and is set exactly once by Route.
type MatchResult struct {
	MatchScore     float64  `json:"match_score"`
	MissingSkills  []string `json:"missing_skills"`
	ExperienceGap  bool     `json:"experience_gap"`
	Recommendation string   `json:"recommendation"`
	ReviewReason   string   `json:"review_reason"`
}

// Score computes candidate fit against the required skills. Pure and
// deterministic; skill comparison is case-insensitive. Skill coverage
// dominates the blend, experience is a secondary gate.
func Score(candidate *extractor.Candidate, requiredSkills []string, minExperience float64) MatchResult {
	candidateSkills := make(map[string]struct{}, len(candidate.Skills))
	for _, skill := range candidate.Skills {
		candidateSkills[strings.ToLower(skill)] = struct{}{}
	}

	overlap := 0
	missing := []string{}
	for _, skill := range requiredSkills {
		if _, ok := candidateSkills[strings.ToLower(skill)]; ok {
			overlap++
		} else {
			missing = append(missing, skill)
		}
	}

	// max(len, 1) guards against an empty required-skill set.
	skillScore := float64(overlap) / math.Max(float64(len(requiredSkills)), 1)

	experienceGap := candidate.YearsOfExperience < minExperience
	experienceScore := 1.0
	if experienceGap {
		experienceScore = 0.0
	}

	matchScore := round2(skillScore*0.7 + experienceScore*0.3)

	return MatchResult{
		MatchScore:     matchScore,
		MissingSkills:  missing,
		ExperienceGap:  experienceGap,
		Recommendation: RecommendationPending,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
