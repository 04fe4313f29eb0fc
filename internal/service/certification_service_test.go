package service

import (
	"testing"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCertificationService(db *gorm.DB) *CertificationService {
	return NewCertificationService(
		repository.NewExamRepository(db),
		repository.NewCertificateRepository(db),
		repository.NewCourseRepository(db),
		repository.NewLessonRepository(db),
		repository.NewProgressRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewUserRepository(db),
		config.DefaultEngineConfig(),
	)
}

// completeLessons 按数量完成课时，满足考试资格要求。
func completeLessons(t *testing.T, db *gorm.DB, userID uint, lessons []model.Lesson, count int) {
	t.Helper()
	progress := repository.NewProgressRepository(db)
	for i := 0; i < count; i++ {
		l := lessons[i]
		_, err := progress.MarkStatus(userID, &l, model.ProgressCompleted)
		require.NoError(t, err)
	}
}

func seedExamQuestions(t *testing.T, db *gorm.DB, category string, count int) []*model.Question {
	t.Helper()
	questions := make([]*model.Question, count)
	for i := 0; i < count; i++ {
		questions[i] = createTestQuestion(t, db, category, model.Beginner, i%4)
	}
	return questions
}

func TestGetExamRequiresEligibility(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 4)
	completeLessons(t, db, user.ID, lessons, 3) // 75% < 80%

	_, err := svc.GetExam(user.ID, course.ID)
	require.Error(t, err)
	appErr := util.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, util.KindBusinessRule, appErr.Kind)
	assert.EqualValues(t, 75, appErr.Details["completionPercentage"])
}

func TestGetExamCreatesExamLazily(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 4)
	completeLessons(t, db, user.ID, lessons, 4)
	seedExamQuestions(t, db, "Go", 12)

	summary, err := svc.GetExam(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.TotalQuestions)
	assert.Equal(t, 70, summary.PassingScore)
	assert.Equal(t, 3, summary.MaxAttempts)
	assert.Equal(t, 3, summary.AttemptsRemaining)
	assert.False(t, summary.HasPassed)

	// 再次请求复用同一考试
	again, err := svc.GetExam(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.ExamID, again.ExamID)
}

func TestGetExamRejectsThinQuestionBank(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	seedExamQuestions(t, db, "Go", 5) // 少于最低题量 10

	_, err := svc.GetExam(user.ID, course.ID)
	require.Error(t, err)
	appErr := util.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, util.KindBusinessRule, appErr.Kind)
}

func TestStartEnforcesMaxAttempts(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	seedExamQuestions(t, db, "Go", 10)

	summary, err := svc.GetExam(user.ID, course.ID)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Create(&model.ExamAttempt{
			UserID:        user.ID,
			ExamID:        summary.ExamID,
			CourseID:      course.ID,
			AttemptNumber: i,
			Status:        model.AttemptCompleted,
			StartedAt:     time.Now(),
		}).Error)
	}

	_, err = svc.Start(user.ID, course.ID)
	require.Error(t, err)
	appErr := util.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, util.KindBusinessRule, appErr.Kind)
}

func TestStartReusesInProgressAttempt(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	seedExamQuestions(t, db, "Go", 10)

	first, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempt.AttemptNumber)
	assert.Equal(t, 100, first.Attempt.MaxScore)
	assert.Len(t, first.Questions, 10)

	second, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Attempt.ID, second.Attempt.ID)
}

func TestSubmitPassIssuesCertificate(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	questions := seedExamQuestions(t, db, "Go", 12)

	started, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)

	// 9/12 正确 → 75% ≥ 70% 及格
	answers := make([]SubmittedAnswer, len(questions))
	for i, q := range questions {
		answer := q.CorrectAnswer
		if i >= 9 {
			answer = (q.CorrectAnswer + 1) % 4
		}
		answers[i] = SubmittedAnswer{QuestionID: q.ID, Answer: answer}
	}

	issuedBefore := testutil.ToFloat64(monitoring.CertificatesIssued)

	result, err := svc.Submit(user.ID, started.Attempt.ID, SubmitExamRequest{Answers: answers})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 75, result.Attempt.Percentage)
	assert.Equal(t, model.AttemptCompleted, result.Attempt.Status)
	assert.Equal(t, issuedBefore+1, testutil.ToFloat64(monitoring.CertificatesIssued))

	require.NotNil(t, result.Certificate)
	assert.Equal(t, "C+", result.Certificate.Grade)
	assert.Equal(t, 2, result.Certificate.LessonsCompleted)
	assert.Contains(t, result.Certificate.CertificateNumber, "CERT-")
	assert.Contains(t, result.Certificate.VerificationCode, "VER-")

	// 重复提交同一尝试被拒绝
	_, err = svc.Submit(user.ID, started.Attempt.ID, SubmitExamRequest{Answers: answers})
	require.Error(t, err)
}

func TestSubmitFailNoCertificate(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	questions := seedExamQuestions(t, db, "Go", 10)

	started, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)

	// 全错 → 0%
	answers := make([]SubmittedAnswer, len(questions))
	for i, q := range questions {
		answers[i] = SubmittedAnswer{QuestionID: q.ID, Answer: (q.CorrectAnswer + 1) % 4}
	}

	result, err := svc.Submit(user.ID, started.Attempt.ID, SubmitExamRequest{Answers: answers})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Nil(t, result.Certificate)

	certs, err := svc.ListCertificates(user.ID)
	require.NoError(t, err)
	assert.Empty(t, certs)
}

func TestSubmitAfterDeadlineTimesOut(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	questions := seedExamQuestions(t, db, "Go", 10)

	started, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)

	// 把开考时间拨回两小时，超过 60 分钟限时
	require.NoError(t, db.Model(&model.ExamAttempt{}).
		Where("id = ?", started.Attempt.ID).
		Update("started_at", time.Now().Add(-2*time.Hour)).Error)

	answers := make([]SubmittedAnswer, len(questions))
	for i, q := range questions {
		answers[i] = SubmittedAnswer{QuestionID: q.ID, Answer: q.CorrectAnswer}
	}

	result, err := svc.Submit(user.ID, started.Attempt.ID, SubmitExamRequest{Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, model.AttemptTimedOut, result.Attempt.Status)
	assert.False(t, result.Passed)
	assert.Nil(t, result.Certificate)
}

func TestCertificateIssuanceIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	questions := seedExamQuestions(t, db, "Go", 10)

	answers := make([]SubmittedAnswer, len(questions))
	for i, q := range questions {
		answers[i] = SubmittedAnswer{QuestionID: q.ID, Answer: q.CorrectAnswer}
	}

	issuedBefore := testutil.ToFloat64(monitoring.CertificatesIssued)

	started, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)
	first, err := svc.Submit(user.ID, started.Attempt.ID, SubmitExamRequest{Answers: answers})
	require.NoError(t, err)

	// 再考一次并通过：证书不重新生成，签发计数也只加一次
	started, err = svc.Start(user.ID, course.ID)
	require.NoError(t, err)
	second, err := svc.Submit(user.ID, started.Attempt.ID, SubmitExamRequest{Answers: answers})
	require.NoError(t, err)

	assert.Equal(t, first.Certificate.CertificateNumber, second.Certificate.CertificateNumber)
	assert.Equal(t, issuedBefore+1, testutil.ToFloat64(monitoring.CertificatesIssued))

	certs, err := svc.ListCertificates(user.ID)
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestAbandonDoesNotCountAgainstAttempts(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	seedExamQuestions(t, db, "Go", 10)

	started, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)

	abandoned, err := svc.Abandon(user.ID, started.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptAbandoned, abandoned.Status)

	summary, err := svc.GetExam(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AttemptsUsed)

	// 放弃后可重新开考，尝试序号不变
	restarted, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restarted.Attempt.AttemptNumber)
	assert.NotEqual(t, started.Attempt.ID, restarted.Attempt.ID)
}

func TestVerifyCertificate(t *testing.T) {
	db := newTestDB(t)
	svc := newCertificationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	completeLessons(t, db, user.ID, lessons, 2)
	questions := seedExamQuestions(t, db, "Go", 10)

	answers := make([]SubmittedAnswer, len(questions))
	for i, q := range questions {
		answers[i] = SubmittedAnswer{QuestionID: q.ID, Answer: q.CorrectAnswer}
	}

	started, err := svc.Start(user.ID, course.ID)
	require.NoError(t, err)
	result, err := svc.Submit(user.ID, started.Attempt.ID, SubmitExamRequest{Answers: answers})
	require.NoError(t, err)

	verified, err := svc.Verify(result.Certificate.CertificateNumber)
	require.NoError(t, err)
	assert.True(t, verified.Valid)
	assert.Equal(t, user.Name, verified.HolderName)
	assert.Equal(t, course.Title, verified.CourseTitle)
	assert.Equal(t, "A+", verified.Grade)

	// 校验码同样可查
	byCode, err := svc.Verify(result.Certificate.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, verified.CertificateNumber, byCode.CertificateNumber)

	// 吊销后 valid=false
	require.NoError(t, db.Model(&model.Certificate{}).
		Where("id = ?", result.Certificate.ID).
		Update("status", model.CertificateRevoked).Error)
	revoked, err := svc.Verify(result.Certificate.CertificateNumber)
	require.NoError(t, err)
	assert.False(t, revoked.Valid)

	_, err = svc.Verify("CERT-NOPE")
	require.Error(t, err)
}

func TestGradeForScoreSteps(t *testing.T) {
	cases := map[int]string{
		100: "A+",
		95:  "A+",
		92:  "A",
		88:  "B+",
		82:  "B",
		77:  "C+",
		71:  "C",
		70:  "C",
		65:  "Pass",
	}
	for score, grade := range cases {
		assert.Equal(t, grade, model.GradeForScore(score), "score %d", score)
	}
}
