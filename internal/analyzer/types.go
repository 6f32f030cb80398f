package analyzer

// KnownSection is one parsed section row of a scorecard.
type KnownSection struct {
	Name     string `json:"name"`
	Score    *int   `json:"score,omitempty"`
	Accuracy *int   `json:"accuracy,omitempty"`
}

// Known holds the fields the extractor could read directly from the text.
type Known struct {
	Score    *int           `json:"score,omitempty"`
	Accuracy *int           `json:"accuracy,omitempty"`
	Sections []KnownSection `json:"sections,omitempty"`
}

// Inferred holds downstream guesses layered on top of the raw extraction.
type Inferred struct {
	Persona       string   `json:"persona,omitempty"`
	RiskPatterns  []string `json:"riskPatterns,omitempty"`
	ConfidenceGap string   `json:"confidenceGap,omitempty"`
}

type Artifacts struct {
	ExtractionQuality string `json:"extractionQuality"`
	Notes             string `json:"notes,omitempty"`
}

// NormalizedAttempt is the structured view of one uploaded scorecard. It is
// created once per upload and never mutated afterwards; absent data is encoded
// in Missing rather than reported as an error.
type NormalizedAttempt struct {
	Known     Known     `json:"known"`
	Inferred  Inferred  `json:"inferred"`
	Missing   []string  `json:"missing"`
	Artifacts Artifacts `json:"artifacts"`
}

type ExamDetection struct {
	Detected   string  `json:"detected,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type MockAnalysis struct {
	Attempt NormalizedAttempt `json:"attempt"`
	Exam    ExamDetection     `json:"exam"`
}
