package learning

import (
	"math"
	"strings"
	"time"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// MaxTimeSpentMinutes bounds the accumulated time on one lesson. It matches
// the INTEGER column of the PostgreSQL store.
const MaxTimeSpentMinutes = math.MaxInt32

// LessonProgress is one intern's state on one lesson. Completion is monotonic
// and time spent never decreases.
type LessonProgress struct {
	ID               string
	InternID         string
	LessonID         string
	IsCompleted      bool
	TimeSpentMinutes int
	Notes            *string
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// NewLessonProgress builds an untouched progress row.
func NewLessonProgress(internID, lessonID string, now time.Time) *LessonProgress {
	return &LessonProgress{
		ID:        shared.NewID(),
		InternID:  internID,
		LessonID:  lessonID,
		StartedAt: now,
	}
}

// Record accumulates minutes, replaces notes when given and completes the
// lesson at most once. Returns true when this call flipped completion.
func (p *LessonProgress) Record(minutes int, notes *string, complete bool, now time.Time) (bool, error) {
	if minutes < 0 {
		return false, shared.InvalidInput("learning", "RecordProgress", "additional minutes must not be negative")
	}
	if minutes > MaxTimeSpentMinutes-p.TimeSpentMinutes {
		return false, shared.InvalidInput("learning", "RecordProgress", "time spent would exceed %d minutes", MaxTimeSpentMinutes)
	}
	p.TimeSpentMinutes += minutes
	if notes != nil {
		n := strings.TrimSpace(*notes)
		p.Notes = &n
	}
	if !complete || p.IsCompleted {
		return false, nil
	}
	p.IsCompleted = true
	if p.CompletedAt == nil {
		at := now
		p.CompletedAt = &at
	}
	return true, nil
}
