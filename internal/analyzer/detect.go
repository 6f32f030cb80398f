// internal/analyzer/detect.go
package analyzer

import "strings"

const detectionThreshold = 3

type keywordWeight struct {
	keyword string
	weight  int
}

// examCandidates are scored in this order; ties keep the earlier candidate.
var examCandidates = []struct {
	exam     string
	keywords []keywordWeight
}{
	{
		exam: "CAT",
		keywords: []keywordWeight{
			{"cat", 2},
			{"varc", 1},
			{"dilr", 1},
			{"quant", 1},
			{"percentile", 1},
		},
	},
	{
		exam: "NEET",
		keywords: []keywordWeight{
			{"neet", 2},
			{"biology", 1},
			{"botany", 1},
			{"zoology", 1},
			{"physics", 1},
			{"chemistry", 1},
			{"ncert", 1},
		},
	},
	{
		exam: "JEE",
		keywords: []keywordWeight{
			{"jee", 2},
			{"mains", 1},
			{"advanced", 1},
			{"physics", 1},
			{"chemistry", 1},
			{"mathematics", 1},
			{"maths", 1},
		},
	},
}

// DetectExam scores each known exam by keyword hits in the text and returns
// the best match, or "" when no candidate reaches the confidence threshold.
func DetectExam(text string) string {
	t := strings.ToLower(text)

	best := ""
	bestScore := 0
	for _, candidate := range examCandidates {
		score := 0
		for _, kw := range candidate.keywords {
			if strings.Contains(t, kw.keyword) {
				score += kw.weight
			}
		}
		if score > bestScore {
			best = candidate.exam
			bestScore = score
		}
	}

	if bestScore < detectionThreshold {
		return ""
	}
	return best
}
