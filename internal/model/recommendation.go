package model

import "time"

type RecommendationType string

const (
	RecNextLesson RecommendationType = "next_lesson"
	RecPractice   RecommendationType = "practice"
	RecRevision   RecommendationType = "revision"
	RecNewCourse  RecommendationType = "new_course"
	RecSkillGap   RecommendationType = "skill_gap"
	RecMilestone  RecommendationType = "milestone"
)

type RecommendationStatus string

const (
	RecPending   RecommendationStatus = "pending"
	RecViewed    RecommendationStatus = "viewed"
	RecActed     RecommendationStatus = "acted"
	RecDismissed RecommendationStatus = "dismissed"
	RecExpired   RecommendationStatus = "expired"
)

type TargetType string

const (
	TargetCourse     TargetType = "course"
	TargetLesson     TargetType = "lesson"
	TargetAssessment TargetType = "assessment"
)

// Recommendation 时效性建议。(user, type, target, status∈{pending,viewed})
// 逻辑唯一：重复触发刷新已有记录而非新增。
// swagger:model Recommendation
type Recommendation struct {
	BaseModel
	UserID      uint                 `gorm:"index;not null" json:"userId"`
	Type        RecommendationType   `gorm:"size:20;not null" json:"type"`
	Title       string               `gorm:"size:200;not null" json:"title"`
	Description string               `gorm:"type:text" json:"description"`
	Reason      string               `gorm:"type:text;not null" json:"reason"`
	Priority    int                  `gorm:"default:5" json:"priority"` // 1-10
	TargetID    uint                 `gorm:"default:0" json:"targetId"`
	TargetType  TargetType           `gorm:"size:20" json:"targetType"`
	Metadata    JSONMap              `gorm:"type:text" json:"metadata"`
	Status      RecommendationStatus `gorm:"size:20;default:'pending';index" json:"status"`
	ActionedAt  *time.Time           `json:"actionedAt,omitempty"`
	ExpiresAt   time.Time            `gorm:"index" json:"expiresAt"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}
