package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cogniverse/internal/analyzer"
	"cogniverse/internal/attempt"
	"cogniverse/internal/auth"
	"cogniverse/internal/config"
	"cogniverse/internal/db"
	"cogniverse/internal/engine"
	"cogniverse/internal/extract"
	"cogniverse/internal/llm"
	"cogniverse/internal/state"
	"cogniverse/internal/user"
)

const minUsableChars = 30

type AnalyzeJSONRequest struct {
	Text string `json:"text"`
	Exam string `json:"exam"`
}

// AnalyzeHandler accepts either a JSON body with pasted scorecard text or a
// multipart upload (pdf/html/plain text), runs the full recommendation
// pipeline, and persists the attempt for durable identities.
func AnalyzeHandler(cfg *config.Config) gin.HandlerFunc {
	client := llm.NewClient(cfg)

	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		text, source, declaredExam, ok := readAnalyzeInput(c, cfg)
		if !ok {
			return
		}

		text = strings.TrimSpace(text)
		if len(text) < minUsableChars {
			errorJSON(c, http.StatusBadRequest, "INVALID_TEXT", "Not enough usable text; paste the scorecard text directly")
			return
		}

		report := analyzer.AnalyzeMock(text)
		if declaredExam != "" && report.Exam.Detected != "" && !strings.EqualFold(declaredExam, report.Exam.Detected) {
			errorJSON(c, http.StatusBadRequest, "EXAM_MISMATCH", "Declared exam does not match the scorecard")
			return
		}

		input := engine.ComposeInput{
			UserID:    ident.ID,
			Ephemeral: ident.Ephemeral,
			Exam:      declaredExam,
			RawText:   text,
		}
		if !ident.Ephemeral {
			var u user.User
			if err := db.DB.Where("email = ?", ident.ID).First(&u).Error; err == nil {
				input.Profile.Profile.ExamGoal = u.ExamGoal
				input.Profile.Profile.WeeklyHours = u.WeeklyHours
			}
		}

		bundle := engine.ComposeRecommendation(c.Request.Context(), db.DB, client, input, report)

		exam := report.Exam.Detected
		if exam == "" {
			exam = declaredExam
		}

		var attemptID uint
		if !ident.Ephemeral {
			a := &attempt.Attempt{
				UserID:  ident.ID,
				Exam:    exam,
				Source:  source,
				RawText: text,
			}
			if err := attempt.SaveAttempt(db.DB, a, report, bundle); err != nil {
				errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to store attempt")
				return
			}
			attemptID = a.ID

			recordPipelineEvents(ident.ID, source, len(text), bundle)
		}

		c.JSON(http.StatusOK, gin.H{
			"id":             attemptID,
			"attempt":        report,
			"recommendation": bundle,
		})
	}
}

// recordPipelineEvents logs the mock_analyzed and plan_generated events behind
// an analysis. Failures only log; the response is already committed.
func recordPipelineEvents(userID, source string, extractedChars int, bundle engine.RecommendationBundle) {
	if _, _, err := state.RecordEvent(db.DB, userID, state.EventInput{
		Type: string(state.EventMockAnalyzed),
		Payload: map[string]interface{}{
			"source":         source,
			"extractedChars": extractedChars,
			"summary":        bundle.Analysis.Summary,
		},
	}); err != nil {
		log.Printf("[API] mock_analyzed event failed: %v", err)
	}

	actionCount := 0
	for _, day := range bundle.Plan.Days {
		actionCount += len(day.Tasks)
	}
	if _, _, err := state.RecordEvent(db.DB, userID, state.EventInput{
		Type: string(state.EventPlanGenerated),
		Payload: map[string]interface{}{
			"horizonDays": bundle.Plan.HorizonDays,
			"actionCount": actionCount,
		},
	}); err != nil {
		log.Printf("[API] plan_generated event failed: %v", err)
	}
}

// readAnalyzeInput pulls the scorecard text from either the JSON body or a
// multipart file, routing pdf/html uploads through the extractors.
func readAnalyzeInput(c *gin.Context, cfg *config.Config) (text, source, exam string, ok bool) {
	contentType := c.GetHeader("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req AnalyzeJSONRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return "", "", "", false
		}
		return req.Text, "text", strings.TrimSpace(req.Exam), true
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing file field")
		return "", "", "", false
	}
	if fileHeader.Size > cfg.Uploads.MaxSizeBytes {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "File exceeds upload size limit")
		return "", "", "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to read upload")
		return "", "", "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, cfg.Uploads.MaxSizeBytes+1))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to read upload")
		return "", "", "", false
	}
	if int64(len(data)) > cfg.Uploads.MaxSizeBytes {
		errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "File exceeds upload size limit")
		return "", "", "", false
	}

	exam = strings.TrimSpace(c.PostForm("exam"))

	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".pdf":
		extracted, err := extract.FromPDF(data)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "INVALID_TEXT", "Could not extract text from the PDF")
			return "", "", "", false
		}
		return extracted, "pdf", exam, true
	case ".html", ".htm":
		return extract.FromHTML(string(data)), "html", exam, true
	default:
		return string(data), "text", exam, true
	}
}

// ListAttemptsHandler returns the identity's recent attempts.
func ListAttemptsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}
		if ident.Ephemeral {
			c.JSON(http.StatusOK, gin.H{"attempts": []attempt.Attempt{}})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		attempts, err := attempt.ListAttempts(db.DB, ident.ID, limit)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to list attempts")
			return
		}
		c.JSON(http.StatusOK, gin.H{"attempts": attempts})
	}
}

// GetAttemptHandler returns one stored attempt with its recommendation.
func GetAttemptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid attempt id")
			return
		}

		a, err := attempt.GetAttemptForUser(db.DB, ident.ID, uint(id))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Attempt not found")
			return
		}
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to load attempt")
			return
		}

		report, err := a.DecodeReport()
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Stored attempt unreadable")
			return
		}
		bundle, err := a.DecodeRecommendation()
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Stored attempt unreadable")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":             a.ID,
			"exam":           a.Exam,
			"source":         a.Source,
			"createdAt":      a.CreatedAt,
			"attempt":        report,
			"recommendation": bundle,
		})
	}
}
