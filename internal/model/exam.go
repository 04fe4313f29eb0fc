package model

import "time"

// Exam 课程结业考试。课程首次请求考试时按类别题库自动生成。
// swagger:model Exam
type Exam struct {
	BaseModel
	CourseID     uint       `gorm:"index;not null" json:"courseId"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	Questions    []Question `gorm:"many2many:exam_questions" json:"questions,omitempty"`
	PassingScore int        `gorm:"default:70" json:"passingScore"`
	Duration     int        `gorm:"default:60" json:"duration"` // 分钟
	MaxAttempts  int        `gorm:"default:3" json:"maxAttempts"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`
}

func (Exam) TableName() string {
	return "exams"
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
	AttemptTimedOut   AttemptStatus = "timed_out"
)

// ExamAttempt 每 (user, exam) 至多一条 in_progress。Open 列仅在进行中为 true，
// 终态写 NULL，(user_id, exam_id, open) 唯一索引在存储层兜底。
// swagger:model ExamAttempt
type ExamAttempt struct {
	BaseModel
	UserID         uint          `gorm:"index;uniqueIndex:idx_attempt_open,priority:1;not null" json:"userId"`
	ExamID         uint          `gorm:"index;uniqueIndex:idx_attempt_open,priority:2;not null" json:"examId"`
	Open           *bool         `gorm:"uniqueIndex:idx_attempt_open,priority:3" json:"-"`
	CourseID       uint          `gorm:"index;not null" json:"courseId"`
	AttemptNumber  int           `gorm:"not null" json:"attemptNumber"`
	Status         AttemptStatus `gorm:"size:20;default:'in_progress'" json:"status"`
	Score          int           `gorm:"default:0" json:"score"`
	MaxScore       int           `gorm:"default:0" json:"maxScore"`
	Percentage     int           `gorm:"default:0" json:"percentage"`
	Passed         bool          `gorm:"default:false" json:"passed"`
	Answers        []ExamAnswer  `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
	StartedAt      time.Time     `json:"startedAt"`
	SubmittedAt    *time.Time    `json:"submittedAt,omitempty"`
	TotalTimeTaken int           `gorm:"default:0" json:"totalTimeTaken"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// swagger:model ExamAnswer
type ExamAnswer struct {
	BaseModel
	AttemptID      uint `gorm:"index;not null" json:"-"`
	QuestionID     uint `gorm:"not null" json:"questionId"`
	SelectedAnswer int  `json:"selectedAnswer"`
	IsCorrect      bool `json:"isCorrect"`
	TimeTaken      int  `gorm:"default:0" json:"timeTaken"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}
