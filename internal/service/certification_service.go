package service

import (
	"errors"
	"fmt"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/monitoring"

	"gorm.io/gorm"
)

type CertificationService struct {
	Exams        *repository.ExamRepository
	Certificates *repository.CertificateRepository
	Courses      *repository.CourseRepository
	Lessons      *repository.LessonRepository
	Progress     *repository.ProgressRepository
	Questions    *repository.QuestionRepository
	Users        *repository.UserRepository
	Engine       config.EngineConfig
}

func NewCertificationService(
	exams *repository.ExamRepository,
	certificates *repository.CertificateRepository,
	courses *repository.CourseRepository,
	lessons *repository.LessonRepository,
	progress *repository.ProgressRepository,
	questions *repository.QuestionRepository,
	users *repository.UserRepository,
	engine config.EngineConfig,
) *CertificationService {
	return &CertificationService{
		Exams:        exams,
		Certificates: certificates,
		Courses:      courses,
		Lessons:      lessons,
		Progress:     progress,
		Questions:    questions,
		Users:        users,
		Engine:       engine,
	}
}

// ExamSummary 考试概览：考试元数据（不含题目）、剩余次数与历史成绩。
type ExamSummary struct {
	ExamID            uint                `json:"examId"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Instructions      string              `json:"instructions"`
	TotalQuestions    int                 `json:"totalQuestions"`
	PassingScore      int                 `json:"passingScore"`
	Duration          int                 `json:"duration"`
	MaxAttempts       int                 `json:"maxAttempts"`
	AttemptsUsed      int                 `json:"attemptsUsed"`
	AttemptsRemaining int                 `json:"attemptsRemaining"`
	HasPassed         bool                `json:"hasPassed"`
	PreviousAttempts  []model.ExamAttempt `json:"previousAttempts"`
}

// checkEligibility 结业考试要求课程完成度达到阈值（默认 80%）。
func (s *CertificationService) checkEligibility(userID, courseID uint) error {
	totalLessons, err := s.Lessons.CountByCourse(courseID)
	if err != nil {
		return err
	}
	completedLessons, err := s.Progress.CountCompleted(userID, courseID)
	if err != nil {
		return err
	}

	completion := util.RoundPercent(int(completedLessons), int(totalLessons))
	if totalLessons == 0 || completion < s.Engine.EligibilityPercent {
		return util.NewBusinessRuleError(
			fmt.Sprintf("complete at least %d%% of the course to take the exam", s.Engine.EligibilityPercent),
			map[string]interface{}{
				"completedLessons":     completedLessons,
				"totalLessons":         totalLessons,
				"completionPercentage": completion,
			})
	}
	return nil
}

// ensureExam 首次请求时按课程类别题库自动生成考试，题量不足则拒绝。
func (s *CertificationService) ensureExam(courseID uint) (*model.Exam, error) {
	exam, err := s.Exams.FindActiveByCourse(courseID)
	if err == nil {
		return exam, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		return nil, util.ErrCourseNotFound
	}

	questions, err := s.Questions.ListByCategory(course.Category, 0)
	if err != nil {
		return nil, err
	}
	if len(questions) < s.Engine.ExamMinQuestions {
		return nil, util.NewBusinessRuleError("not enough questions available to generate an exam for this course", map[string]interface{}{
			"category":  course.Category,
			"available": len(questions),
			"required":  s.Engine.ExamMinQuestions,
		})
	}
	if len(questions) > s.Engine.ExamMaxQuestions {
		questions = questions[:s.Engine.ExamMaxQuestions]
	}

	exam = &model.Exam{
		CourseID:     courseID,
		Title:        course.Title + " - Final Exam",
		Description:  "Final certification exam for " + course.Title,
		Instructions: fmt.Sprintf("Answer all questions. You need %d%% to pass. You have %d minutes.", s.Engine.ExamPassingScore, s.Engine.ExamDurationMinutes),
		Questions:    questions,
		PassingScore: s.Engine.ExamPassingScore,
		Duration:     s.Engine.ExamDurationMinutes,
		MaxAttempts:  s.Engine.ExamMaxAttempts,
		IsActive:     true,
	}
	if err := s.Exams.Create(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// GetExam 考试概览。未达完成度阈值返回业务规则错误。
func (s *CertificationService) GetExam(userID, courseID uint) (*ExamSummary, error) {
	if err := s.checkEligibility(userID, courseID); err != nil {
		return nil, err
	}

	exam, err := s.ensureExam(courseID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.Exams.ListCompletedAttempts(userID, exam.ID)
	if err != nil {
		return nil, err
	}

	hasPassed := false
	for _, a := range attempts {
		if a.Passed {
			hasPassed = true
			break
		}
	}

	remaining := exam.MaxAttempts - len(attempts)
	if remaining < 0 {
		remaining = 0
	}

	return &ExamSummary{
		ExamID:            exam.ID,
		Title:             exam.Title,
		Description:       exam.Description,
		Instructions:      exam.Instructions,
		TotalQuestions:    len(exam.Questions),
		PassingScore:      exam.PassingScore,
		Duration:          exam.Duration,
		MaxAttempts:       exam.MaxAttempts,
		AttemptsUsed:      len(attempts),
		AttemptsRemaining: remaining,
		HasPassed:         hasPassed,
		PreviousAttempts:  attempts,
	}, nil
}

// StartedExam 开考响应：进行中的答题记录加脱敏题目。
type StartedExam struct {
	Attempt   *model.ExamAttempt        `json:"attempt"`
	Questions []model.SanitizedQuestion `json:"questions"`
	Duration  int                       `json:"duration"`
	ExpiresAt time.Time                 `json:"expiresAt"`
}

// Start 开始考试。只有 completed 尝试计入次数上限；已有进行中的尝试则续用。
func (s *CertificationService) Start(userID, courseID uint) (*StartedExam, error) {
	if err := s.checkEligibility(userID, courseID); err != nil {
		return nil, err
	}

	exam, err := s.ensureExam(courseID)
	if err != nil {
		return nil, err
	}

	completedCount, err := s.Exams.CountCompletedAttempts(userID, exam.ID)
	if err != nil {
		return nil, err
	}
	if int(completedCount) >= exam.MaxAttempts {
		return nil, util.ErrAttemptsExhausted
	}

	attempt, err := s.Exams.FindInProgressAttempt(userID, exam.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		attempt = &model.ExamAttempt{
			UserID:        userID,
			ExamID:        exam.ID,
			CourseID:      courseID,
			AttemptNumber: int(completedCount) + 1,
			MaxScore:      len(exam.Questions) * 10,
			StartedAt:     time.Now(),
		}
		if err := s.Exams.CreateAttempt(attempt); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 并发开考撞唯一索引：另一请求已创建，续用它
				attempt, err = s.Exams.FindInProgressAttempt(userID, exam.ID)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
	}

	sanitized := make([]model.SanitizedQuestion, len(exam.Questions))
	for i := range exam.Questions {
		sanitized[i] = exam.Questions[i].Sanitize()
	}

	return &StartedExam{
		Attempt:   attempt,
		Questions: sanitized,
		Duration:  exam.Duration,
		ExpiresAt: attempt.StartedAt.Add(time.Duration(exam.Duration) * time.Minute),
	}, nil
}

type SubmitExamRequest struct {
	Answers        []SubmittedAnswer `json:"answers" binding:"required"`
	TotalTimeTaken int               `json:"totalTimeTaken"`
}

// ExamResult 判分结果；通过时附带签发的证书。
type ExamResult struct {
	Attempt     *model.ExamAttempt `json:"attempt"`
	Passed      bool               `json:"passed"`
	Certificate *model.Certificate `json:"certificate,omitempty"`
}

// Submit 提交答卷。得分率按开考时锁定的满分计算，超时提交记为 timed_out
// 且不判及格；及格则幂等签发证书。
func (s *CertificationService) Submit(userID, attemptID uint, req SubmitExamRequest) (*ExamResult, error) {
	attempt, err := s.Exams.FindAttemptByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.NewAuthorizationError("not authorized to submit this attempt")
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.NewBusinessRuleError("this attempt has already been submitted", nil)
	}

	exam, err := s.Exams.FindByID(attempt.ExamID)
	if err != nil {
		return nil, util.ErrExamNotFound
	}

	ids := make([]uint, 0, len(req.Answers))
	for _, a := range req.Answers {
		ids = append(ids, a.QuestionID)
	}
	questions := map[uint]*model.Question{}
	if len(ids) > 0 {
		questions, err = s.Questions.FindByIDs(ids)
		if err != nil {
			return nil, err
		}
	}

	graded := GradeAnswers(questions, req.Answers)

	now := time.Now()
	timedOut := now.After(attempt.StartedAt.Add(time.Duration(exam.Duration) * time.Minute))

	attempt.Score = graded.Score
	if attempt.MaxScore <= 0 {
		attempt.MaxScore = graded.MaxScore
	}
	attempt.Percentage = util.RoundPercent(attempt.Score, attempt.MaxScore)
	attempt.Passed = !timedOut && attempt.Percentage >= exam.PassingScore
	attempt.SubmittedAt = &now
	attempt.TotalTimeTaken = req.TotalTimeTaken
	attempt.Status = model.AttemptCompleted
	if timedOut {
		attempt.Status = model.AttemptTimedOut
	}

	attempt.Answers = nil
	for _, g := range graded.Answers {
		attempt.Answers = append(attempt.Answers, model.ExamAnswer{
			AttemptID:      attempt.ID,
			QuestionID:     g.QuestionID,
			SelectedAnswer: g.SelectedAnswer,
			IsCorrect:      g.IsCorrect,
			TimeTaken:      g.TimeTaken,
		})
	}

	if err := s.Exams.SaveAttempt(attempt); err != nil {
		return nil, err
	}

	result := &ExamResult{Attempt: attempt, Passed: attempt.Passed}
	if attempt.Passed {
		cert, err := s.issueCertificate(userID, attempt)
		if err != nil {
			return nil, err
		}
		result.Certificate = cert
	}
	return result, nil
}

// issueCertificate 每 (user, course) 至多一张，重复通过不会重新生成号码。
func (s *CertificationService) issueCertificate(userID uint, attempt *model.ExamAttempt) (*model.Certificate, error) {
	lessonsCompleted, err := s.Progress.CountCompleted(userID, attempt.CourseID)
	if err != nil {
		return nil, err
	}
	timeSpent, err := s.Progress.SumTimeSpent(userID, attempt.CourseID)
	if err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		UserID:           userID,
		CourseID:         attempt.CourseID,
		ExamID:           attempt.ExamID,
		Score:            attempt.Percentage,
		Grade:            model.GradeForScore(attempt.Percentage),
		Status:           model.CertificateActive,
		LessonsCompleted: int(lessonsCompleted),
		TotalTimeSpent:   int(timeSpent / 60),
	}
	issued, created, err := s.Certificates.CreateIdempotent(cert)
	if err != nil {
		return nil, err
	}
	if created {
		monitoring.CertificatesIssued.Inc()
	}
	return issued, nil
}

// Abandon 放弃进行中的尝试，不计入次数上限。
func (s *CertificationService) Abandon(userID, attemptID uint) (*model.ExamAttempt, error) {
	attempt, err := s.Exams.FindAttemptByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.NewAuthorizationError("not authorized to modify this attempt")
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.NewBusinessRuleError("only in-progress attempts can be abandoned", nil)
	}

	now := time.Now()
	attempt.Status = model.AttemptAbandoned
	attempt.SubmittedAt = &now
	return attempt, s.Exams.SaveAttempt(attempt)
}

// ListCertificates 用户名下的有效证书。
func (s *CertificationService) ListCertificates(userID uint) ([]model.Certificate, error) {
	return s.Certificates.ListActiveByUser(userID)
}

func (s *CertificationService) CertificateByID(userID, certID uint) (*model.Certificate, error) {
	cert, err := s.Certificates.FindByID(certID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}
	if cert.UserID != userID {
		return nil, util.NewAuthorizationError("not authorized to view this certificate")
	}
	return cert, nil
}

// VerifiedCertificate 公开校验视图，含持有人与课程名称。
type VerifiedCertificate struct {
	Valid             bool      `json:"valid"`
	CertificateNumber string    `json:"certificateNumber"`
	HolderName        string    `json:"holderName"`
	CourseTitle       string    `json:"courseTitle"`
	IssueDate         time.Time `json:"issueDate"`
	Score             int       `json:"score"`
	Grade             string    `json:"grade"`
	IssuerName        string    `json:"issuerName"`
}

// Verify 按证书号或校验码公开校验，无需登录。吊销证书视为无效。
func (s *CertificationService) Verify(code string) (*VerifiedCertificate, error) {
	cert, err := s.Certificates.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}

	holder := ""
	if user, err := s.Users.FindByID(cert.UserID); err == nil {
		holder = user.Name
	}
	courseTitle := ""
	if course, err := s.Courses.FindByID(cert.CourseID); err == nil {
		courseTitle = course.Title
	}

	return &VerifiedCertificate{
		Valid:             cert.Status == model.CertificateActive,
		CertificateNumber: cert.CertificateNumber,
		HolderName:        holder,
		CourseTitle:       courseTitle,
		IssueDate:         cert.IssueDate,
		Score:             cert.Score,
		Grade:             cert.Grade,
		IssuerName:        cert.IssuerName,
	}, nil
}
