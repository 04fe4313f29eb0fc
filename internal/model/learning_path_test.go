package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateProgress(t *testing.T) {
	path := &LearningPath{}
	assert.Equal(t, 0, path.CalculateProgress())

	path.Courses = []PathCourse{
		{Status: PathCourseCompleted},
		{Status: PathCourseInProgress},
		{Status: PathCourseNotStarted},
	}
	assert.Equal(t, 33, path.CalculateProgress())

	path.Courses[1].Status = PathCourseCompleted
	path.Courses[2].Status = PathCourseCompleted
	assert.Equal(t, 100, path.CalculateProgress())
}

func TestSkillLevelTransitions(t *testing.T) {
	assert.Equal(t, Intermediate, Beginner.Promote())
	assert.Equal(t, Advanced, Intermediate.Promote())
	assert.Equal(t, Advanced, Advanced.Promote())

	assert.Equal(t, Beginner, Beginner.Demote())
	assert.Equal(t, Beginner, Intermediate.Demote())
	assert.Equal(t, Intermediate, Advanced.Demote())
}

func TestTimeAvailabilityBudgets(t *testing.T) {
	assert.Equal(t, 3, FullTime.CoursesPerWeek())
	assert.Equal(t, 2, PartTime.CoursesPerWeek())
	assert.Equal(t, 1, Flexible.CoursesPerWeek())

	assert.Equal(t, 40, FullTime.HoursPerWeek())
	assert.Equal(t, 20, PartTime.HoursPerWeek())
	assert.Equal(t, 10, Flexible.HoursPerWeek())
}
