package matcher

import (
	"math"
	"testing"

	"github.com/hirestack/resume-screener/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreIsIdempotent(t *testing.T) {
	candidate := &extractor.Candidate{
		YearsOfExperience: 5,
		Skills:            []string{"Go", "PostgreSQL"},
	}
	required := []string{"Go", "AWS", "Docker"}

	first := Score(candidate, required, 3)
	second := Score(candidate, required, 3)

	require.Equal(t, first, second)
}

func TestScoreSkillComparisonIsCaseInsensitive(t *testing.T) {
	candidate := &extractor.Candidate{
		YearsOfExperience: 5,
		Skills:            []string{"Python"},
	}

	result := Score(candidate, []string{"python"}, 3)

	assert.Empty(t, result.MissingSkills)
	assert.InDelta(t, 1.0, result.MatchScore, 1e-9)
}

func TestScoreEmptyRequiredSkillsDoesNotDivideByZero(t *testing.T) {
	candidate := &extractor.Candidate{
		YearsOfExperience: 5,
		Skills:            []string{"Python"},
	}

	result := Score(candidate, nil, 3)

	require.False(t, math.IsNaN(result.MatchScore))
	// 0 overlap over a guarded denominator of 1, plus full experience credit.
	assert.InDelta(t, 0.3, result.MatchScore, 1e-9)
	assert.Empty(t, result.MissingSkills)
}

func TestScoreExperienceGap(t *testing.T) {
	candidate := &extractor.Candidate{
		YearsOfExperience: 1,
		Skills:            []string{"Python", "AWS"},
	}

	result := Score(candidate, []string{"Python", "AWS"}, 3)

	assert.True(t, result.ExperienceGap)
	// Full skill coverage but no experience credit: 0.7*1 + 0.3*0.
	assert.InDelta(t, 0.7, result.MatchScore, 1e-9)
}

func TestScoreMissingSkillsKeepOriginalCasing(t *testing.T) {
	candidate := &extractor.Candidate{
		YearsOfExperience: 5,
		Skills:            []string{"python"},
	}

	result := Score(candidate, []string{"Python", "AWS"}, 3)

	assert.Equal(t, []string{"AWS"}, result.MissingSkills)
}

func TestScorePartialMatchBlend(t *testing.T) {
	candidate := &extractor.Candidate{
		YearsOfExperience: 5,
		Skills:            []string{"Python", "SQL"},
	}

	result := Score(candidate, []string{"Python", "AWS"}, 3)

	// skillScore 0.5, experienceScore 1: 0.7*0.5 + 0.3*1 = 0.65.
	assert.InDelta(t, 0.65, result.MatchScore, 1e-9)
	assert.False(t, result.ExperienceGap)
	assert.Equal(t, []string{"AWS"}, result.MissingSkills)
	assert.Equal(t, RecommendationPending, result.Recommendation)
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	candidate := &extractor.Candidate{
		YearsOfExperience: 5,
		Skills:            []string{"Python"},
	}

	// skillScore 1/3: 0.7/3 + 0.3 = 0.5333... -> 0.53.
	result := Score(candidate, []string{"Python", "AWS", "Docker"}, 3)

	assert.InDelta(t, 0.53, result.MatchScore, 1e-9)
}
