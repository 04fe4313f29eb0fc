package service

import (
	"testing"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCourseService(db *gorm.DB) *CourseService {
	return NewCourseService(
		repository.NewCourseRepository(db),
		repository.NewLessonRepository(db),
		repository.NewProgressRepository(db),
	)
}

func TestGetDetailWithAndWithoutUser(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(db)
	user := createTestUser(t, db, model.Beginner, model.Flexible)

	course, lessons := createTestCourse(t, db, "Go Basics", "Go", model.Beginner, 2)
	progress := repository.NewProgressRepository(db)
	_, err := progress.MarkStatus(user.ID, &lessons[0], model.ProgressCompleted)
	require.NoError(t, err)

	// 匿名访问：完成数为 0
	anon, err := svc.GetDetail(0, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, anon.CompletedLessons)
	assert.Equal(t, 0, anon.Completion)
	assert.Len(t, anon.Lessons, 2)

	// 登录访问：附带个人完成情况
	detail, err := svc.GetDetail(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.CompletedLessons)
	assert.Equal(t, 50, detail.Completion)
}

func TestGetLessonChecksCourseMembership(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(db)

	courseA, lessonsA := createTestCourse(t, db, "Course A", "Go", model.Beginner, 2)
	courseB, _ := createTestCourse(t, db, "Course B", "SQL", model.Beginner, 2)

	lesson, err := svc.GetLesson(courseA.ID, lessonsA[0].ID)
	require.NoError(t, err)
	assert.Equal(t, lessonsA[0].ID, lesson.ID)

	// 跨课程的 ID 组合按不存在处理
	_, err = svc.GetLesson(courseB.ID, lessonsA[0].ID)
	require.Error(t, err)
	appErr := util.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, util.KindNotFound, appErr.Kind)
}
