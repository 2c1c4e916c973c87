package matcher

// Thresholds are the routing cut-offs, injected from configuration.
// Rule order is fixed; only the numbers move between deployments.
type Thresholds struct {
	Shortlist       float64
	Review          float64
	ConfidenceFloor float64
}

// Route assigns the final disposition using ordered rules; the first
// matching rule wins. A low-confidence extraction overrides everything:
// an untrustworthy record must not silently reject or shortlist anyone.
func Route(result MatchResult, extractionConfidence float64, t Thresholds) MatchResult {
	switch {
	case extractionConfidence < t.ConfidenceFloor:
		result.Recommendation = RecommendationHumanReview
		result.ReviewReason = "Low extraction confidence"

	case result.MatchScore >= t.Shortlist && !result.ExperienceGap:
		result.Recommendation = RecommendationShortlisted
		result.ReviewReason = ""

	case result.MatchScore >= t.Review:
		result.Recommendation = RecommendationHumanReview
		result.ReviewReason = "Partial skill match"

	default:
		result.Recommendation = RecommendationRejected
		result.ReviewReason = "Insufficient skill match"
	}

	return result
}
