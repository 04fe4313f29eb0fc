package model

// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID    uint   `gorm:"index;not null" json:"courseId"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"column:sort_order;default:0" json:"order"`
	Duration    int    `gorm:"default:0" json:"duration"` // 分钟
}

func (Lesson) TableName() string {
	return "lessons"
}
