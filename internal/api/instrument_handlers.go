package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cogniverse/internal/auth"
	"cogniverse/internal/state"
)

// InstrumentTemplate describes the self-logged attempt grid. Out-of-range or
// missing values fall back to the defaults rather than erroring.
type InstrumentTemplate struct {
	SectionCount        int `json:"sectionCount"`
	QuestionsPerSection int `json:"questionsPerSection"`
	TotalTimeMin        int `json:"totalTimeMin"`
}

func clampTemplate(t InstrumentTemplate) InstrumentTemplate {
	if t.SectionCount < 1 || t.SectionCount > 6 {
		t.SectionCount = 1
	}
	if t.QuestionsPerSection < 1 || t.QuestionsPerSection > 120 {
		t.QuestionsPerSection = 20
	}
	if t.TotalTimeMin < 1 || t.TotalTimeMin > 300 {
		t.TotalTimeMin = 60
	}
	return t
}

func templatePayload(t InstrumentTemplate) map[string]interface{} {
	return map[string]interface{}{
		"sectionCount":        t.SectionCount,
		"questionsPerSection": t.QuestionsPerSection,
		"totalTimeMin":        t.TotalTimeMin,
	}
}

// InstrumentStartHandler opens a self-logged attempt: clamp the template,
// apply instrument_started, hand back the attempt id and snapshot.
func InstrumentStartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		var req struct {
			Template InstrumentTemplate `json:"template"`
		}
		// Garbage bodies just mean default template.
		_ = c.ShouldBindJSON(&req)
		template := clampTemplate(req.Template)

		attemptID := uuid.NewString()
		next, err := applyEvent(ident, state.EventInput{
			Type: string(state.EventInstrumentStarted),
			Payload: map[string]interface{}{
				"attemptId": attemptID,
				"template":  templatePayload(template),
			},
		})
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to start attempt")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"attemptId":     attemptID,
			"stateSnapshot": stateSnapshot(next),
		})
	}
}

// InstrumentEventHandler applies one instrument_question_updated event.
func InstrumentEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		var req struct {
			Payload map[string]interface{} `json:"payload"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid event body")
			return
		}

		next, err := applyEvent(ident, state.EventInput{
			Type:    string(state.EventInstrumentQuestionUpdated),
			Payload: req.Payload,
		})
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to apply event")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":            true,
			"stateSnapshot": stateSnapshot(next),
		})
	}
}

type instrumentQuestion struct {
	Status       string `json:"status"`
	Correctness  string `json:"correctness"`
	ErrorType    string `json:"errorType"`
	TimeSpentSec int    `json:"timeSpentSec"`
}

type instrumentFinishRequest struct {
	AttemptID string               `json:"attemptId"`
	Template  InstrumentTemplate   `json:"template"`
	Questions []instrumentQuestion `json:"questions"`
	Timer     struct {
		RemainingSec int `json:"remainingSec"`
		TotalTimeSec int `json:"totalTimeSec"`
	} `json:"timer"`
}

// InstrumentFinishHandler closes a self-logged attempt: summarize the question
// log into counts and error signals and apply instrument_finished.
func InstrumentFinishHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		var req instrumentFinishRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.AttemptID == "" {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid instrumented attempt payload")
			return
		}
		template := clampTemplate(req.Template)

		summary, errorCounts, dominant, timePressure := summarizeInstrument(template, req)

		next, err := applyEvent(ident, state.EventInput{
			Type: string(state.EventInstrumentFinished),
			Payload: map[string]interface{}{
				"attemptId":         req.AttemptID,
				"template":          templatePayload(template),
				"summary":           summary,
				"dominantErrorType": dominant,
				"errorSignals":      errorCounts,
				"timePressureProxy": timePressure,
			},
		})
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to finish attempt")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":            true,
			"summary":       summary,
			"stateSnapshot": stateSnapshot(next),
		})
	}
}

func summarizeInstrument(template InstrumentTemplate, req instrumentFinishRequest) (map[string]interface{}, map[string]interface{}, string, bool) {
	totalQuestions := template.SectionCount * template.QuestionsPerSection

	attempted, skipped, correct, incorrect, unknown, totalSpentSec := 0, 0, 0, 0, 0, 0
	errorCounts := map[string]int{"concept": 0, "time": 0, "careless": 0, "selection": 0, "unknown": 0}

	for _, q := range req.Questions {
		if q.TimeSpentSec > 0 {
			totalSpentSec += q.TimeSpentSec
		}
		if q.Status == "skipped" {
			skipped++
		} else {
			attempted++
		}
		switch q.Correctness {
		case "correct":
			correct++
		case "incorrect":
			incorrect++
			errType := q.ErrorType
			if _, ok := errorCounts[errType]; !ok {
				errType = "unknown"
			}
			errorCounts[errType]++
		default:
			unknown++
		}
	}

	avgPerAttemptedSec := 0
	if attempted > 0 {
		avgPerAttemptedSec = totalSpentSec / attempted
	}
	expectedAvgSec := 0
	if totalQuestions > 0 {
		expectedAvgSec = req.Timer.TotalTimeSec / totalQuestions
	}
	timePressure := req.Timer.RemainingSec < 0 ||
		(expectedAvgSec > 0 && float64(avgPerAttemptedSec) > float64(expectedAvgSec)*1.25) ||
		(req.Timer.TotalTimeSec > 0 && float64(totalSpentSec) > float64(req.Timer.TotalTimeSec)*1.1)

	dominant := "unknown"
	best := 0
	for _, errType := range []string{"concept", "time", "careless", "selection", "unknown"} {
		if errorCounts[errType] > best {
			best = errorCounts[errType]
			dominant = errType
		}
	}

	counts := map[string]interface{}{}
	for k, v := range errorCounts {
		counts[k] = v
	}

	summary := map[string]interface{}{
		"attemptedCount":     attempted,
		"skippedCount":       skipped,
		"correctCount":       correct,
		"incorrectCount":     incorrect,
		"unknownCount":       unknown,
		"totalQuestions":     totalQuestions,
		"totalSpentSec":      totalSpentSec,
		"avgPerAttemptedSec": avgPerAttemptedSec,
		"errorCounts":        counts,
		"dominantErrorType":  dominant,
		"timePressureProxy":  timePressure,
	}
	return summary, counts, dominant, timePressure
}
