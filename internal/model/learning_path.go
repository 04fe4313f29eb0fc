package model

import "time"

type PathStatus string

const (
	PathActive    PathStatus = "active"
	PathPaused    PathStatus = "paused"
	PathCompleted PathStatus = "completed"
	PathAbandoned PathStatus = "abandoned"
)

type PathCourseStatus string

const (
	PathCourseNotStarted PathCourseStatus = "not_started"
	PathCourseInProgress PathCourseStatus = "in_progress"
	PathCourseCompleted  PathCourseStatus = "completed"
	PathCourseSkipped    PathCourseStatus = "skipped"
)

// LearningPath 每用户至多一条 active 路径。Active 列仅在激活时为 true，
// 其余状态写 NULL，(user_id, active) 唯一索引在存储层兜底该不变量。
// swagger:model LearningPath
type LearningPath struct {
	BaseModel
	UserID            uint         `gorm:"index;uniqueIndex:idx_path_user_active,priority:1;not null" json:"userId"`
	Active            *bool        `gorm:"uniqueIndex:idx_path_user_active,priority:2" json:"-"`
	Title             string       `gorm:"size:200;not null" json:"title"`
	Description       string       `gorm:"type:text" json:"description"`
	Type              string       `gorm:"size:30;default:'skill-based'" json:"type"`
	Difficulty        SkillLevel   `gorm:"size:20;default:'Beginner'" json:"difficulty"`
	TargetGoal        string       `gorm:"type:text" json:"targetGoal"`
	EstimatedDuration string       `gorm:"size:50" json:"estimatedDuration"`
	TotalHours        float64      `gorm:"default:0" json:"totalHours"`
	Courses           []PathCourse `gorm:"foreignKey:PathID" json:"courses,omitempty"`
	FocusAreas        StringList   `gorm:"type:text" json:"focusAreas"`
	WeakTopics        StringList   `gorm:"type:text" json:"weakTopics"`
	StrongTopics      StringList   `gorm:"type:text" json:"strongTopics"`
	Progress          int          `gorm:"default:0" json:"progress"`
	Status            PathStatus   `gorm:"size:20;default:'active'" json:"status"`
	GeneratedBy       string       `gorm:"size:20;default:'engine'" json:"generatedBy"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// CalculateProgress 路径进度为已完成课程条目的占比，不按课时加权。
func (p *LearningPath) CalculateProgress() int {
	if len(p.Courses) == 0 {
		return 0
	}
	completed := 0
	for _, c := range p.Courses {
		if c.Status == PathCourseCompleted {
			completed++
		}
	}
	return int(float64(completed)/float64(len(p.Courses))*100 + 0.5)
}

// swagger:model PathCourse
type PathCourse struct {
	BaseModel
	PathID      uint             `gorm:"index;not null" json:"-"`
	CourseID    uint             `gorm:"index;not null" json:"courseId"`
	Course      *Course          `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Order       int              `gorm:"column:sort_order;not null" json:"order"`
	Status      PathCourseStatus `gorm:"size:20;default:'not_started'" json:"status"`
	LessonsDone int              `gorm:"default:0" json:"lessonsDone"`
	Progress    int              `gorm:"default:0" json:"progress"`
	StartedAt   *time.Time       `json:"startedAt,omitempty"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

func (PathCourse) TableName() string {
	return "path_courses"
}
