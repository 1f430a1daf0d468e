// Package gamification contains the scoring engine's pure rules: badge
// criteria evaluation and the derivation of a UserScore from an intern's
// counters and earned badges.
package gamification

import (
	"encoding/json"
	"sort"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

// Counter names a score counter that criteria can test.
type Counter string

const (
	CounterCoursesCompleted Counter = "courses_completed"
	CounterQuizzesPassed    Counter = "quizzes_passed"
	CounterLessonsCompleted Counter = "lessons_completed"
	CounterDaysPresent      Counter = "days_present"
)

// IsValid checks that the counter is known.
func (c Counter) IsValid() bool {
	switch c {
	case CounterCoursesCompleted, CounterQuizzesPassed, CounterLessonsCompleted, CounterDaysPresent:
		return true
	}
	return false
}

// Counters is the snapshot of an intern's facts that criteria are evaluated on.
type Counters struct {
	CoursesCompleted int
	QuizzesPassed    int
	LessonsCompleted int
	DaysPresent      int
}

// Value returns the named counter.
func (c Counters) Value(name Counter) int {
	switch name {
	case CounterCoursesCompleted:
		return c.CoursesCompleted
	case CounterQuizzesPassed:
		return c.QuizzesPassed
	case CounterLessonsCompleted:
		return c.LessonsCompleted
	case CounterDaysPresent:
		return c.DaysPresent
	}
	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// CRITERIA
// ══════════════════════════════════════════════════════════════════════════════

// Op is a comparison operator.
type Op string

const (
	OpGTE Op = "gte"
	OpGT  Op = "gt"
	OpEQ  Op = "eq"
	OpLTE Op = "lte"
	OpLT  Op = "lt"
)

func (o Op) apply(left, right int) (bool, bool) {
	switch o {
	case OpGTE:
		return left >= right, true
	case OpGT:
		return left > right, true
	case OpEQ:
		return left == right, true
	case OpLTE:
		return left <= right, true
	case OpLT:
		return left < right, true
	}
	return false, false
}

// Match combines rule results.
type Match string

const (
	MatchAll Match = "all"
	MatchAny Match = "any"
)

// Rule compares one counter to a constant.
type Rule struct {
	Counter Counter `json:"counter"`
	Op      Op      `json:"op"`
	Value   int     `json:"value"`
}

// Criteria is a declarative badge predicate.
type Criteria struct {
	Match Match  `json:"match"`
	Rules []Rule `json:"rules"`
}

// ParseCriteria accepts the full form {"match":"all","rules":[...]} or the
// shorthand {"quizzes_passed":3}, which means every counter >= its value.
func ParseCriteria(raw json.RawMessage) (Criteria, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Criteria{}, shared.WrapError("gamification", "ParseCriteria", shared.ErrInvalidInput, "criteria must be a JSON object", err)
	}

	var c Criteria
	if _, full := fields["rules"]; full {
		if err := json.Unmarshal(raw, &c); err != nil {
			return Criteria{}, shared.WrapError("gamification", "ParseCriteria", shared.ErrInvalidInput, "malformed criteria", err)
		}
	} else {
		c.Match = MatchAll
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			var v int
			if err := json.Unmarshal(fields[name], &v); err != nil {
				return Criteria{}, shared.WrapError("gamification", "ParseCriteria", shared.ErrInvalidInput, "threshold for "+name+" must be an integer", err)
			}
			c.Rules = append(c.Rules, Rule{Counter: Counter(name), Op: OpGTE, Value: v})
		}
	}

	if c.Match == "" {
		c.Match = MatchAll
	}
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Validate rejects unknown counters, operators and match modes.
func (c Criteria) Validate() error {
	if c.Match != MatchAll && c.Match != MatchAny {
		return shared.InvalidInput("gamification", "ParseCriteria", "match must be all or any")
	}
	if len(c.Rules) == 0 {
		return shared.InvalidInput("gamification", "ParseCriteria", "criteria need at least one rule")
	}
	for _, r := range c.Rules {
		if !r.Counter.IsValid() {
			return shared.InvalidInput("gamification", "ParseCriteria", "unknown counter %q", r.Counter)
		}
		if _, ok := r.Op.apply(0, 0); !ok {
			return shared.InvalidInput("gamification", "ParseCriteria", "unknown operator %q", r.Op)
		}
	}
	return nil
}

// Holds evaluates the criteria against a counter snapshot.
func (c Criteria) Holds(counters Counters) bool {
	for _, r := range c.Rules {
		ok, _ := r.Op.apply(counters.Value(r.Counter), r.Value)
		if c.Match == MatchAny && ok {
			return true
		}
		if c.Match == MatchAll && !ok {
			return false
		}
	}
	return c.Match == MatchAll
}

// JSON returns the canonical full-form encoding.
func (c Criteria) JSON() json.RawMessage {
	b, _ := json.Marshal(c)
	return b
}
