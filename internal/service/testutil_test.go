package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/pkg/database"
	"learnsphere_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存库。TranslateError 与生产配置保持一致，
// 唯一索引冲突同样翻译为 gorm.ErrDuplicatedKey。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, level model.SkillLevel, availability model.TimeAvailability, topics ...string) *model.User {
	t.Helper()
	user := &model.User{
		Name:             "Test Student",
		Email:            fmt.Sprintf("%s-%d@test.local", strings.ReplaceAll(strings.ToLower(t.Name()), "/", "-"), time.Now().UnixNano()),
		Password:         "hashed",
		Role:             model.Student,
		SkillLevel:       level,
		PreferredTopics:  topics,
		TimeAvailability: availability,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestQuestion(t *testing.T, db *gorm.DB, category string, difficulty model.SkillLevel, correct int, tags ...string) *model.Question {
	t.Helper()
	q := &model.Question{
		Text:          fmt.Sprintf("%s question", category),
		Options:       model.StringList{"A", "B", "C", "D"},
		CorrectAnswer: correct,
		Category:      category,
		Tags:          tags,
		Difficulty:    difficulty,
		Points:        10,
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

func createTestCourse(t *testing.T, db *gorm.DB, title, category string, difficulty model.SkillLevel, lessonCount int, tags ...string) (*model.Course, []model.Lesson) {
	t.Helper()
	course := &model.Course{
		Title:        title,
		Category:     category,
		Tags:         tags,
		Difficulty:   difficulty,
		Rating:       4.0,
		TotalLessons: lessonCount,
		IsPublished:  true,
	}
	require.NoError(t, db.Create(course).Error)

	lessons := make([]model.Lesson, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lessons[i] = model.Lesson{
			CourseID: course.ID,
			Title:    fmt.Sprintf("%s lesson %d", title, i+1),
			Order:    i + 1,
			Duration: 30,
		}
		require.NoError(t, db.Create(&lessons[i]).Error)
	}
	return course, lessons
}
