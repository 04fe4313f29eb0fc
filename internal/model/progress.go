package model

import "time"

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// Progress 每个用户每节课一条记录，完成计数驱动路径推进与考试资格校验。
// swagger:model Progress
type Progress struct {
	BaseModel
	UserID          uint           `gorm:"uniqueIndex:idx_progress_user_lesson;not null" json:"userId"`
	LessonID        uint           `gorm:"uniqueIndex:idx_progress_user_lesson;not null" json:"lessonId"`
	CourseID        uint           `gorm:"index;not null" json:"courseId"`
	Status          ProgressStatus `gorm:"size:20;default:'not_started'" json:"status"`
	ProgressPercent int            `gorm:"default:0" json:"progressPercent"`
	TimeSpent       int            `gorm:"default:0" json:"timeSpent"` // 秒
	LastAccessedAt  time.Time      `json:"lastAccessedAt"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
}

func (Progress) TableName() string {
	return "progresses"
}
