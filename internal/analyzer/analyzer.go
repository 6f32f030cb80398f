// internal/analyzer/analyzer.go
package analyzer

import (
	"regexp"
	"strconv"
	"strings"
)

const insufficientTextThreshold = 80

var sectionKeywords = []string{
	"section",
	"quant",
	"verbal",
	"varc",
	"lrdi",
	"dilr",
	"reading",
	"english",
	"math",
	"physics",
	"chemistry",
	"biology",
}

var (
	scoreRe        = regexp.MustCompile(`(?i)score\s*[:\-]?\s*(\d{1,3})`)
	accuracyRe     = regexp.MustCompile(`(?i)accuracy\s*[:\-]?\s*(\d{1,3})%?`)
	fractionRe     = regexp.MustCompile(`(\d{1,3})\s*/\s*\d{1,3}`)
	percentRe      = regexp.MustCompile(`(\d{1,3})%`)
	sectionLineRe  = regexp.MustCompile(`^(?P<name>[A-Za-z &/]+)\s*[:\-]\s*(?P<rest>.+)$`)
	lineSplitterRe = regexp.MustCompile(`[\n;]`)
)

// AnalyzeMock turns raw scorecard text into structured partial signals. It is
// pure and never fails: missing or ambiguous data surfaces only through the
// Missing list and an empty exam detection.
func AnalyzeMock(rawText string) MockAnalysis {
	score := extractScore(rawText)
	accuracy := extractAccuracy(rawText)
	sections := extractSections(rawText)

	var missing []string
	if score == nil {
		missing = append(missing, "score")
	}
	if accuracy == nil {
		missing = append(missing, "accuracy")
	}
	if len(sections) == 0 {
		missing = append(missing, "sections")
	}
	if len(rawText) < insufficientTextThreshold {
		missing = append(missing, "insufficient_text")
	}

	analysis := MockAnalysis{
		Attempt: NormalizedAttempt{
			Known: Known{
				Score:    score,
				Accuracy: accuracy,
				Sections: sections,
			},
			Missing: missing,
			Artifacts: Artifacts{
				ExtractionQuality: extractionQuality(rawText),
			},
		},
	}

	if rawText != "" {
		if exam := DetectExam(rawText); exam != "" {
			analysis.Exam = ExamDetection{Detected: exam, Confidence: 0.6}
		}
	}

	return analysis
}

func parseNumeric(value string) *int {
	num, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &num
}

func extractScore(text string) *int {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return parseNumeric(m[1])
}

func extractAccuracy(text string) *int {
	m := accuracyRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return parseNumeric(m[1])
}

func extractSections(text string) []KnownSection {
	var sections []KnownSection

	for _, line := range lineSplitterRe.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := sectionLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		rest := m[2]
		if !hasSectionKeyword(name) {
			continue
		}

		var score, accuracy *int
		if sm := scoreRe.FindStringSubmatch(rest); sm != nil {
			score = parseNumeric(sm[1])
		} else if fm := fractionRe.FindStringSubmatch(rest); fm != nil {
			score = parseNumeric(fm[1])
		}
		if am := accuracyRe.FindStringSubmatch(rest); am != nil {
			accuracy = parseNumeric(am[1])
		} else if pm := percentRe.FindStringSubmatch(rest); pm != nil {
			accuracy = parseNumeric(pm[1])
		}

		if score != nil || accuracy != nil {
			sections = append(sections, KnownSection{Name: name, Score: score, Accuracy: accuracy})
		}
	}

	return sections
}

func hasSectionKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range sectionKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func extractionQuality(rawText string) string {
	switch {
	case len(rawText) > 1200:
		return "high"
	case len(rawText) > 400:
		return "medium"
	default:
		return "low"
	}
}
