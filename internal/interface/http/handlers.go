package http

import (
	"net/http"

	"github.com/intern-hub/progress-ledger/internal/application/command"
	"github.com/intern-hub/progress-ledger/internal/application/query"
	"github.com/intern-hub/progress-ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports every check plus diagnostic details.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"uptime": s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

// handleReady reports whether the service can take traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSONError(w, r, http.StatusServiceUnavailable, "not_ready", status.Message)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive reports that the process is up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRegisterIntern handles POST /api/v1/interns
func (s *Server) handleRegisterIntern(w http.ResponseWriter, r *http.Request) {
	var req registerInternRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cmd := command.RegisterInternCommand{
		Code:       req.InternCode,
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Phone:      req.Phone,
	}
	// The validator has already checked the layout.
	cmd.StartDate, _ = timeutil.ParseDate(req.StartDate)
	if req.EndDate != nil {
		end, _ := timeutil.ParseDate(*req.EndDate)
		cmd.EndDate = &end
	}

	result, err := s.deps.Commands.RegisterIntern.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.ToInternDTO(result.Intern))
}

// handleListInterns handles GET /api/v1/interns
func (s *Server) handleListInterns(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.deps.Interns.List(r.Context(), query.ListInternsQuery{
		ActiveOnly: boolParam(r, "active"),
		Department: r.URL.Query().Get("department"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, list, len(list))
}

// handleGetIntern handles GET /api/v1/interns/{id}
func (s *Server) handleGetIntern(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.Interns.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleSetInternActive handles PATCH /api/v1/interns/{id}/active
func (s *Server) handleSetInternActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Commands.SetInternActive.Handle(r.Context(), command.SetInternActiveCommand{
		InternID: r.PathValue("id"),
		Active:   *req.Active,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.ToInternDTO(result.Intern))
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCheckIn handles POST /api/v1/attendance/check-in
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Commands.Attendance.CheckIn(r.Context(), command.CheckInCommand{
		InternCode: req.InternCode,
		Status:     req.Status,
		Notes:      req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.ToAttendanceDTO(result.Record, result.Intern))
}

// handleCheckOut handles POST /api/v1/attendance/check-out
func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var req checkOutRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Commands.Attendance.CheckOut(r.Context(), command.CheckOutCommand{
		InternCode: req.InternCode,
		Notes:      req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.ToAttendanceDTO(result.Record, result.Intern))
}

// handleDailyAttendance handles GET /api/v1/attendance?date=YYYY-MM-DD
func (s *Server) handleDailyAttendance(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.Attendance.Daily(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleAttendanceStats handles GET /api/v1/attendance/stats?date=YYYY-MM-DD
func (s *Server) handleAttendanceStats(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.deps.Attendance.Stats(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// handleInternAttendance handles GET /api/v1/interns/{id}/attendance?from=&to=
func (s *Server) handleInternAttendance(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.deps.Attendance.ForIntern(r.Context(), query.InternAttendanceQuery{
		InternID: r.PathValue("id"),
		From:     from,
		To:       to,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, list, len(list))
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCreateCourse handles POST /api/v1/courses
func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	course, err := s.deps.Commands.Catalog.CreateCourse(r.Context(), command.CreateCourseCommand{
		Title:           req.Title,
		Description:     req.Description,
		DifficultyLevel: req.DifficultyLevel,
		DurationHours:   req.DurationHours,
		Status:          req.Status,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.ToCourseDTO(course))
}

// handleCreateModule handles POST /api/v1/courses/{id}/modules
func (s *Server) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	var req createModuleRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	module, err := s.deps.Commands.Catalog.CreateModule(r.Context(), command.CreateModuleCommand{
		CourseID:   r.PathValue("id"),
		Title:      req.Title,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.ToModuleDTO(module))
}

// handleCreateLesson handles POST /api/v1/modules/{id}/lessons
func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	required := true
	if req.IsRequired != nil {
		required = *req.IsRequired
	}

	lesson, err := s.deps.Commands.Catalog.CreateLesson(r.Context(), command.CreateLessonCommand{
		ModuleID:        r.PathValue("id"),
		Title:           req.Title,
		ContentType:     req.ContentType,
		DurationMinutes: req.DurationMinutes,
		IsRequired:      required,
		OrderIndex:      req.OrderIndex,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.ToLessonDTO(lesson))
}

// handleCreateQuiz handles POST /api/v1/quizzes
func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	q, err := s.deps.Commands.Catalog.CreateQuiz(r.Context(), command.CreateQuizCommand{
		LessonID:         req.LessonID,
		Title:            req.Title,
		PassingScore:     req.PassingScore,
		MaxAttempts:      req.MaxAttempts,
		TimeLimitMinutes: req.TimeLimitMinutes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.ToQuizDTO(q))
}

// handleDefineBadge handles POST /api/v1/badges
func (s *Server) handleDefineBadge(w http.ResponseWriter, r *http.Request) {
	var req defineBadgeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	badge, err := s.deps.Commands.Catalog.DefineBadge(r.Context(), command.DefineBadgeCommand{
		Name:        req.Name,
		Description: req.Description,
		Criteria:    req.Criteria,
		Points:      req.Points,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.ToBadgeDTO(badge))
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleEnroll handles POST /api/v1/enrollments
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollmentRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Commands.Learning.Enroll(r.Context(), command.EnrollCommand{
		InternID: req.InternID,
		CourseID: req.CourseID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.ToEnrollmentDTO(result.Enrollment))
}

// handleDropEnrollment handles POST /api/v1/enrollments/drop
func (s *Server) handleDropEnrollment(w http.ResponseWriter, r *http.Request) {
	var req enrollmentRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Commands.Learning.DropEnrollment(r.Context(), command.DropEnrollmentCommand{
		InternID: req.InternID,
		CourseID: req.CourseID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.ToEnrollmentDTO(result.Enrollment))
}

// handleListEnrollments handles GET /api/v1/interns/{id}/enrollments
func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Progress.Enrollments(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, list, len(list))
}

// handleListCertificates handles GET /api/v1/interns/{id}/certificates
func (s *Server) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Progress.Certificates(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, list, len(list))
}

// progressResponse is returned by the lesson progress endpoints.
type progressResponse struct {
	Progress    query.ProgressDTO     `json:"progress"`
	Created     bool                  `json:"created"`
	Completed   bool                  `json:"completed"`
	Enrollment  *query.EnrollmentDTO  `json:"enrollment,omitempty"`
	Certificate *query.CertificateDTO `json:"certificate,omitempty"`
}

func toProgressResponse(res *command.ProgressResult) progressResponse {
	out := progressResponse{
		Progress:  query.ToProgressDTO(res.Progress),
		Created:   res.Created,
		Completed: res.Completed,
	}
	if res.Enrollment != nil {
		e := query.ToEnrollmentDTO(res.Enrollment)
		out.Enrollment = &e
	}
	if res.Certificate != nil {
		c := query.ToCertificateDTO(res.Certificate)
		out.Certificate = &c
	}
	return out
}

// handleStartLesson handles POST /api/v1/lessons/{id}/start
func (s *Server) handleStartLesson(w http.ResponseWriter, r *http.Request) {
	var req startLessonRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Commands.Learning.StartLesson(r.Context(), command.StartLessonCommand{
		InternID: req.InternID,
		LessonID: r.PathValue("id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, toProgressResponse(result))
}

// handleRecordProgress handles POST /api/v1/lessons/{id}/progress
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var req recordProgressRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Commands.Learning.RecordProgress(r.Context(), command.RecordProgressCommand{
		InternID:          req.InternID,
		LessonID:          r.PathValue("id"),
		AdditionalMinutes: req.AdditionalMinutes,
		Notes:             req.Notes,
		Complete:          req.Complete,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProgressResponse(result))
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type attemptResponse struct {
	Attempt           query.AttemptDTO `json:"attempt"`
	AttemptsRemaining *int             `json:"attempts_remaining,omitempty"`
}

// handleSubmitAttempt handles POST /api/v1/quizzes/{id}/attempts
func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitAttemptRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.Commands.SubmitAttempt.Handle(r.Context(), command.SubmitAttemptCommand{
		InternID: req.InternID,
		QuizID:   r.PathValue("id"),
		Answers:  req.Answers,
		Score:    req.Score,
		MaxScore: req.MaxScore,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, attemptResponse{
		Attempt:           query.ToAttemptDTO(result.Attempt),
		AttemptsRemaining: result.AttemptsRemaining,
	})
}

// handleListAttempts handles GET /api/v1/quizzes/{id}/attempts?intern_id=
func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	internID := r.URL.Query().Get("intern_id")
	if internID == "" {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_input", "intern_id query parameter is required")
		return
	}

	list, err := s.deps.Progress.Attempts(r.Context(), internID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONList(w, r, list, len(list))
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE & LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type recomputeResponse struct {
	Score     query.ScoreDTO   `json:"score"`
	Changed   bool             `json:"changed"`
	NewBadges []query.BadgeDTO `json:"new_badges"`
}

// handleRecomputeScore handles POST /api/v1/interns/{id}/score/recompute
func (s *Server) handleRecomputeScore(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Commands.RecomputeScore.Handle(r.Context(), command.RecomputeScoreCommand{
		InternID: r.PathValue("id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := recomputeResponse{
		Score:     query.ToScoreDTO(result.Score, nil),
		Changed:   result.Changed,
		NewBadges: make([]query.BadgeDTO, 0, len(result.NewBadges)),
	}
	for _, b := range result.NewBadges {
		resp.NewBadges = append(resp.NewBadges, query.ToBadgeDTO(b))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleGetScore handles GET /api/v1/interns/{id}/score
func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	score, err := s.deps.Scores.Score(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, score)
}

// handleLeaderboard handles GET /api/v1/leaderboard?limit=
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.Scores.Leaderboard(r.Context(), query.LeaderboardQuery{Limit: limit})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}
