package model

import "time"

// Assessment 一次测评的不可变记录，提交时一次性创建。
// swagger:model Assessment
type Assessment struct {
	BaseModel
	UserID         uint               `gorm:"index;not null" json:"userId"`
	Score          int                `gorm:"not null" json:"score"`
	MaxScore       int                `gorm:"not null" json:"maxScore"`
	Percentage     int                `gorm:"not null" json:"percentage"`
	TotalQuestions int                `gorm:"default:0" json:"totalQuestions"`
	Difficulty     string             `gorm:"size:20;default:'Mixed'" json:"difficulty"`
	Answers        []AssessmentAnswer `gorm:"foreignKey:AssessmentID" json:"answers,omitempty"`
	CategoryScores []CategoryScore    `gorm:"foreignKey:AssessmentID" json:"categoryScores,omitempty"`
	WeakTopics     StringList         `gorm:"type:text" json:"weakTopics"`
	StrongTopics   StringList         `gorm:"type:text" json:"strongTopics"`
	TotalTimeTaken int                `gorm:"default:0" json:"totalTimeTaken"`
	CompletedAt    time.Time          `json:"completedAt"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// swagger:model AssessmentAnswer
type AssessmentAnswer struct {
	BaseModel
	AssessmentID   uint   `gorm:"index;not null" json:"-"`
	QuestionID     uint   `gorm:"not null" json:"questionId"`
	QuestionText   string `gorm:"type:text" json:"questionText"`
	SelectedAnswer int    `json:"selectedAnswer"`
	CorrectAnswer  int    `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	TimeTaken      int    `gorm:"default:0" json:"timeTaken"`
	Category       string `gorm:"size:100" json:"category"`
}

func (AssessmentAnswer) TableName() string {
	return "assessment_answers"
}

// swagger:model CategoryScore
type CategoryScore struct {
	BaseModel
	AssessmentID uint   `gorm:"index;not null" json:"-"`
	Category     string `gorm:"size:100;not null" json:"category"`
	Correct      int    `json:"correct"`
	Total        int    `json:"total"`
	Percentage   int    `json:"percentage"`
}

func (CategoryScore) TableName() string {
	return "category_scores"
}
