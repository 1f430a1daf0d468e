package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BODIES
// ══════════════════════════════════════════════════════════════════════════════

type registerInternRequest struct {
	InternCode string  `json:"intern_code" validate:"required,max=20"`
	Name       string  `json:"name" validate:"required,max=200"`
	Email      string  `json:"email" validate:"required,email"`
	Department string  `json:"department" validate:"required,max=100"`
	Phone      string  `json:"phone" validate:"omitempty,max=30"`
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type checkInRequest struct {
	InternCode string  `json:"intern_code" validate:"required"`
	Status     string  `json:"status" validate:"required"`
	Notes      *string `json:"notes"`
}

type checkOutRequest struct {
	InternCode string  `json:"intern_code" validate:"required"`
	Notes      *string `json:"notes"`
}

type createCourseRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description"`
	DifficultyLevel string `json:"difficulty_level" validate:"max=30"`
	DurationHours   int    `json:"duration_hours" validate:"min=0"`
	Status          string `json:"status"`
}

type createModuleRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	OrderIndex int    `json:"order_index" validate:"min=0"`
}

type createLessonRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	ContentType     string `json:"content_type" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"min=0"`
	IsRequired      *bool  `json:"is_required"`
	OrderIndex      int    `json:"order_index" validate:"min=0"`
}

type createQuizRequest struct {
	LessonID         *string `json:"lesson_id"`
	Title            string  `json:"title" validate:"required,max=200"`
	PassingScore     *int    `json:"passing_score"`
	MaxAttempts      *int    `json:"max_attempts"`
	TimeLimitMinutes *int    `json:"time_limit_minutes"`
}

type defineBadgeRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	Criteria    json.RawMessage `json:"criteria" validate:"required"`
	Points      int             `json:"points" validate:"min=0"`
}

type enrollmentRequest struct {
	InternID string `json:"intern_id" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
}

type startLessonRequest struct {
	InternID string `json:"intern_id" validate:"required"`
}

type recordProgressRequest struct {
	InternID          string  `json:"intern_id" validate:"required"`
	AdditionalMinutes int     `json:"additional_minutes" validate:"min=0,max=1440"`
	Notes             *string `json:"notes"`
	Complete          bool    `json:"complete"`
}

type submitAttemptRequest struct {
	InternID string          `json:"intern_id" validate:"required"`
	Answers  json.RawMessage `json:"answers"`
	Score    int             `json:"score" validate:"min=0,max=2147483647"`
	MaxScore int             `json:"max_score" validate:"min=1,max=2147483647"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DECODING
// ══════════════════════════════════════════════════════════════════════════════

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errBodyTooLarge is returned by decode when the body exceeds the size limit
// after the headers did not announce it.
var errBodyTooLarge = errors.New("request body too large")

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return shared.InvalidInput("http", "Decode", "request body is required")
		}
		return shared.InvalidInput("http", "Decode", "malformed JSON body: %v", err)
	}
	return s.validate.Struct(dst)
}

// dateParam parses an optional YYYY-MM-DD query parameter. Absent yields zero.
func dateParam(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := timeutil.ParseDate(raw)
	if err != nil {
		return time.Time{}, shared.InvalidInput("http", "Query", "%s must be a YYYY-MM-DD date", key)
	}
	return d, nil
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.InvalidInput("http", "Query", "%s must be an integer", key)
	}
	return n, nil
}

// boolParam reads an optional boolean query parameter.
func boolParam(r *http.Request, key string) bool {
	v := strings.ToLower(r.URL.Query().Get(key))
	return v == "true" || v == "1" || v == "yes"
}
