package service

import (
	"testing"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/event"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRecommendationService(db *gorm.DB) *RecommendationService {
	return NewRecommendationService(
		repository.NewRecommendationRepository(db),
		repository.NewLearningPathRepository(db),
		repository.NewLessonRepository(db),
		repository.NewCourseRepository(db),
		repository.NewProgressRepository(db),
		repository.NewAssessmentRepository(db),
		repository.NewUserRepository(db),
		config.DefaultEngineConfig(),
	)
}

func countRecommendations(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Recommendation{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestCreateOrUpdateDedupes(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	first, err := svc.CreateOrUpdate(user.ID, RecommendationInput{
		Type:       model.RecNextLesson,
		Title:      "Lesson A",
		Reason:     "keep going",
		Priority:   5,
		TargetID:   42,
		TargetType: model.TargetLesson,
	})
	require.NoError(t, err)

	second, err := svc.CreateOrUpdate(user.ID, RecommendationInput{
		Type:       model.RecNextLesson,
		Title:      "Lesson A updated",
		Reason:     "still going",
		Priority:   9,
		TargetID:   42,
		TargetType: model.TargetLesson,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Lesson A updated", second.Title)
	assert.Equal(t, 9, second.Priority)
	assert.EqualValues(t, 1, countRecommendations(t, db, user.ID))

	// 终态记录不参与去重
	second.Status = model.RecDismissed
	require.NoError(t, db.Save(second).Error)

	third, err := svc.CreateOrUpdate(user.ID, RecommendationInput{
		Type:       model.RecNextLesson,
		Title:      "Lesson A again",
		Reason:     "again",
		Priority:   5,
		TargetID:   42,
		TargetType: model.TargetLesson,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestNextActionReturnsPendingFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	existing, err := svc.CreateOrUpdate(user.ID, RecommendationInput{
		Type:       model.RecMilestone,
		Title:      "Almost there",
		Reason:     "finish",
		Priority:   10,
		TargetID:   1,
		TargetType: model.TargetCourse,
	})
	require.NoError(t, err)

	rec, err := svc.NextAction(user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, existing.ID, rec.ID)
	assert.EqualValues(t, 1, countRecommendations(t, db, user.ID))
}

func TestNextActionSuggestsAssessmentWhenNone(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	rec, err := svc.NextAction(user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.RecSkillGap, rec.Type)
	assert.Equal(t, 9, rec.Priority)
	assert.Equal(t, model.TargetAssessment, rec.TargetType)
}

func TestNextActionSuggestsNewCourse(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible, "Go")

	course, _ := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	require.NoError(t, db.Create(&model.Assessment{
		UserID:      user.ID,
		Score:       50,
		MaxScore:    100,
		Percentage:  50,
		CompletedAt: time.Now(),
	}).Error)

	rec, err := svc.NextAction(user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.RecNewCourse, rec.Type)
	assert.Equal(t, 7, rec.Priority)
	assert.Equal(t, course.ID, rec.TargetID)
	assert.Equal(t, model.TargetCourse, rec.TargetType)
}

func TestNextActionContinuesPathLesson(t *testing.T) {
	db := newTestDB(t)
	recSvc := newRecommendationService(db)
	pathSvc := newPathService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible, "Go")

	_, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 3)

	_, err := pathSvc.Generate(user.ID)
	require.NoError(t, err)

	// 活跃路径里的下一节未完成课时（优先级 9）
	rec, err := recSvc.NextAction(user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.RecNextLesson, rec.Type)
	assert.Equal(t, 9, rec.Priority)
	assert.Equal(t, lessons[0].ID, rec.TargetID)
}

func TestHandleEventMilestone(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 3)
	progress := repository.NewProgressRepository(db)
	for _, lesson := range lessons[:2] {
		l := lesson
		_, err := progress.MarkStatus(user.ID, &l, model.ProgressCompleted)
		require.NoError(t, err)
	}

	svc.HandleEvent(event.Event{
		Type:     event.LessonCompleted,
		UserID:   user.ID,
		CourseID: course.ID,
		LessonID: lessons[1].ID,
	})

	recs, err := svc.Recent(user.ID, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecMilestone, recs[0].Type)
	assert.Equal(t, 10, recs[0].Priority)
	assert.Equal(t, course.ID, recs[0].TargetID)
}

func TestHandleEventMilestoneOnlyAtLastLesson(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 3)
	progress := repository.NewProgressRepository(db)
	_, err := progress.MarkStatus(user.ID, &lessons[0], model.ProgressCompleted)
	require.NoError(t, err)

	svc.HandleEvent(event.Event{
		Type:     event.LessonCompleted,
		UserID:   user.ID,
		CourseID: course.ID,
		LessonID: lessons[0].ID,
	})

	assert.EqualValues(t, 0, countRecommendations(t, db, user.ID))
}

func TestHandleEventSkillGap(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	svc.HandleEvent(event.Event{
		Type:         event.AssessmentCompleted,
		UserID:       user.ID,
		AssessmentID: 7,
		WeakTopics:   []string{"Algebra", "Geometry"},
		Percentage:   45,
	})

	recs, err := svc.Recent(user.ID, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecSkillGap, recs[0].Type)
	assert.Equal(t, 8, recs[0].Priority)
	assert.Contains(t, recs[0].Description, "Algebra")

	// 无弱项时不触发
	svc.HandleEvent(event.Event{
		Type:         event.AssessmentCompleted,
		UserID:       user.ID,
		AssessmentID: 8,
		Percentage:   90,
	})
	assert.EqualValues(t, 1, countRecommendations(t, db, user.ID))
}

func TestHandleEventUserReturn(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	_, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	progress := repository.NewProgressRepository(db)
	_, err := progress.MarkStatus(user.ID, &lessons[0], model.ProgressInProgress)
	require.NoError(t, err)

	svc.HandleEvent(event.Event{Type: event.UserReturn, UserID: user.ID})

	recs, err := svc.Recent(user.ID, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecNextLesson, recs[0].Type)
	assert.Equal(t, 10, recs[0].Priority)
	assert.Equal(t, lessons[0].ID, recs[0].TargetID)
}

func TestPracticeTargetsWeakTopics(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	createTestCourse(t, db, "Algebra Drills", "Algebra", model.Beginner, 2)
	require.NoError(t, db.Create(&model.Assessment{
		UserID:      user.ID,
		Score:       30,
		MaxScore:    100,
		Percentage:  30,
		WeakTopics:  model.StringList{"Algebra", "Geometry"},
		CompletedAt: time.Now(),
	}).Error)

	practice, err := svc.Practice(user.ID)
	require.NoError(t, err)
	// Geometry 无对应课程，静默跳过
	require.Len(t, practice, 1)
	assert.Equal(t, "Algebra", practice[0].Topic)
	assert.Equal(t, "Algebra Drills", practice[0].Course.Title)
}

func TestUpdateStatusSetsActionedAt(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	rec, err := svc.CreateOrUpdate(user.ID, RecommendationInput{
		Type:       model.RecNextLesson,
		Title:      "Lesson",
		Reason:     "go",
		Priority:   5,
		TargetID:   1,
		TargetType: model.TargetLesson,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(user.ID, rec.ID, model.RecDismissed)
	require.NoError(t, err)
	assert.Equal(t, model.RecDismissed, updated.Status)
	assert.NotNil(t, updated.ActionedAt)

	_, err = svc.UpdateStatus(user.ID, rec.ID, model.RecommendationStatus("bogus"))
	require.Error(t, err)
}

func TestNextActionSurfacesAssessmentLookupFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	// 测评表不可用时错误上抛，而不是当作"从未测评"继续走后续规则
	require.NoError(t, db.Migrator().DropTable(&model.Assessment{}))

	_, err := svc.NextAction(user.ID)
	require.Error(t, err)
	assert.EqualValues(t, 0, countRecommendations(t, db, user.ID))
}

func TestPracticeAggregatesRecentWeakTopics(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	createTestCourse(t, db, "Algebra Drills", "Algebra", model.Beginner, 2)
	createTestCourse(t, db, "SQL Drills", "SQL", model.Beginner, 2)

	// 较早一次测评暴露 SQL 弱项，最新一次只覆盖 Algebra
	require.NoError(t, db.Create(&model.Assessment{
		UserID:      user.ID,
		Score:       20,
		MaxScore:    100,
		Percentage:  20,
		WeakTopics:  model.StringList{"SQL"},
		CompletedAt: time.Now().Add(-48 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&model.Assessment{
		UserID:      user.ID,
		Score:       40,
		MaxScore:    100,
		Percentage:  40,
		WeakTopics:  model.StringList{"Algebra"},
		CompletedAt: time.Now(),
	}).Error)

	practice, err := svc.Practice(user.ID)
	require.NoError(t, err)
	require.Len(t, practice, 2)
	assert.Equal(t, "Algebra", practice[0].Topic)
	assert.Equal(t, "SQL", practice[1].Topic)
}
