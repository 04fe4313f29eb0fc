package service

import (
	"testing"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPathService(db *gorm.DB) *LearningPathService {
	return NewLearningPathService(
		repository.NewLearningPathRepository(db),
		repository.NewCourseRepository(db),
		repository.NewLessonRepository(db),
		repository.NewProgressRepository(db),
		repository.NewAssessmentRepository(db),
		repository.NewUserRepository(db),
		config.DefaultEngineConfig(),
		nil,
	)
}

func TestDifficultyWindow(t *testing.T) {
	assert.Equal(t, []model.SkillLevel{model.Beginner}, DifficultyWindow(model.Beginner))
	assert.Equal(t, []model.SkillLevel{model.Beginner, model.Intermediate}, DifficultyWindow(model.Intermediate))
	assert.Equal(t, []model.SkillLevel{model.Intermediate, model.Advanced}, DifficultyWindow(model.Advanced))
}

func TestRankCoursesWeights(t *testing.T) {
	user := &model.User{
		SkillLevel:      model.Beginner,
		PreferredTopics: model.StringList{"Go"},
	}

	match := model.Course{
		Title:         "Go Basics",
		Category:      "Go",
		Tags:          model.StringList{"basics"},
		Difficulty:    model.Beginner,
		Rating:        5,
		EnrolledCount: 200,
	}
	miss := model.Course{
		Title:      "Rust Internals",
		Category:   "Rust",
		Difficulty: model.Advanced,
	}

	ranked := RankCourses([]model.Course{miss, match}, user, []string{"Basics"})

	// 30(偏好) + 40(弱项) + 20(难度) + 10(评分×2) + 10(热度封顶) = 110
	require.Len(t, ranked, 2)
	assert.Equal(t, "Go Basics", ranked[0].Course.Title)
	assert.Equal(t, float64(110), ranked[0].Score)
	assert.Equal(t, float64(0), ranked[1].Score)
}

func TestRankCoursesStableOnTies(t *testing.T) {
	user := &model.User{SkillLevel: model.Beginner}
	a := model.Course{Title: "First", Difficulty: model.Beginner}
	b := model.Course{Title: "Second", Difficulty: model.Beginner}

	ranked := RankCourses([]model.Course{a, b}, user, nil)

	assert.Equal(t, "First", ranked[0].Course.Title)
	assert.Equal(t, "Second", ranked[1].Course.Title)
}

func TestGenerateBuildsPathFromProfile(t *testing.T) {
	db := newTestDB(t)
	svc := newPathService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible, "Go")

	for i := 0; i < 5; i++ {
		createTestCourse(t, db, "Course", "Go", model.Beginner, 2, "basics")
	}

	path, err := svc.Generate(user.ID)
	require.NoError(t, err)

	// Flexible: 1 门/周 × 4 周，下限 4 门
	assert.Len(t, path.Courses, 4)
	assert.Equal(t, model.PathActive, path.Status)
	assert.Equal(t, model.PathCourseInProgress, path.Courses[0].Status)
	assert.NotNil(t, path.Courses[0].StartedAt)
	assert.Equal(t, model.PathCourseNotStarted, path.Courses[1].Status)
	assert.Equal(t, "Beginner Go Learning Path", path.Title)
	// 8 节课 × 0.5h / 10h 每周 → 1 周
	assert.Equal(t, "1 weeks", path.EstimatedDuration)
}

func TestGenerateSupersedesActivePath(t *testing.T) {
	db := newTestDB(t)
	svc := newPathService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible, "Go")

	createTestCourse(t, db, "Course A", "Go", model.Beginner, 2)
	createTestCourse(t, db, "Course B", "Go", model.Beginner, 2)

	first, err := svc.Generate(user.ID)
	require.NoError(t, err)
	second, err := svc.Generate(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	paths, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	activeCount := 0
	for _, p := range paths {
		if p.Status == model.PathActive {
			activeCount++
		} else {
			assert.Equal(t, model.PathPaused, p.Status)
		}
	}
	assert.Equal(t, 1, activeCount)

	active, err := svc.Active(user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestApplyLessonProgressCascades(t *testing.T) {
	db := newTestDB(t)
	svc := newPathService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible, "Go")

	_, lessonsA := createTestCourse(t, db, "Course A", "Go", model.Beginner, 2)
	_, lessonsB := createTestCourse(t, db, "Course B", "Go", model.Beginner, 2)

	path, err := svc.Generate(user.ID)
	require.NoError(t, err)
	require.Len(t, path.Courses, 2)

	// 第一节完成：课程 50%，路径 0%
	path, err = svc.ApplyLessonProgress(user.ID, lessonsA[0].ID, model.ProgressCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, path.Courses[0].LessonsDone)
	assert.Equal(t, 50, path.Courses[0].Progress)
	assert.Equal(t, 0, path.Progress)

	// 第二节完成：课程闭环并激活下一门
	path, err = svc.ApplyLessonProgress(user.ID, lessonsA[1].ID, model.ProgressCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.PathCourseCompleted, path.Courses[0].Status)
	assert.NotNil(t, path.Courses[0].CompletedAt)
	assert.Equal(t, model.PathCourseInProgress, path.Courses[1].Status)
	assert.Equal(t, 50, path.Progress)

	// 重复完成同一节课不二次计数
	path, err = svc.ApplyLessonProgress(user.ID, lessonsA[1].ID, model.ProgressCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, path.Courses[0].LessonsDone)
	assert.Equal(t, 50, path.Progress)

	// 全部完成后路径自动闭环
	_, err = svc.ApplyLessonProgress(user.ID, lessonsB[0].ID, model.ProgressCompleted)
	require.NoError(t, err)
	path, err = svc.ApplyLessonProgress(user.ID, lessonsB[1].ID, model.ProgressCompleted)
	require.NoError(t, err)
	assert.Equal(t, 100, path.Progress)
	assert.Equal(t, model.PathCompleted, path.Status)
}

func TestUpdateStatusValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newPathService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible, "Go")
	createTestCourse(t, db, "Course A", "Go", model.Beginner, 2)

	path, err := svc.Generate(user.ID)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(user.ID, path.ID, model.PathStatus("bogus"))
	require.Error(t, err)

	updated, err := svc.UpdateStatus(user.ID, path.ID, model.PathPaused)
	require.NoError(t, err)
	assert.Equal(t, model.PathPaused, updated.Status)

	// 暂停后不再有活跃路径
	_, err = svc.Active(user.ID)
	require.Error(t, err)
}

func TestApplyLessonProgressPersistsPartialEntry(t *testing.T) {
	db := newTestDB(t)
	svc := newPathService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible, "Go")

	_, lessons := createTestCourse(t, db, "Course A", "Go", model.Beginner, 2)

	_, err := svc.Generate(user.ID)
	require.NoError(t, err)

	_, err = svc.ApplyLessonProgress(user.ID, lessons[0].ID, model.ProgressCompleted)
	require.NoError(t, err)

	// 课程未完结时条目进度同样落库，重新加载后不丢
	reloaded, err := svc.Active(user.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Courses, 1)
	assert.Equal(t, 1, reloaded.Courses[0].LessonsDone)
	assert.Equal(t, 50, reloaded.Courses[0].Progress)
	assert.Equal(t, model.PathCourseInProgress, reloaded.Courses[0].Status)
}
