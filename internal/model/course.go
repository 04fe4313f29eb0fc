package model

// swagger:model Course
type Course struct {
	BaseModel
	Title         string     `gorm:"size:200;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Category      string     `gorm:"size:100;index" json:"category"`
	Tags          StringList `gorm:"type:text" json:"tags"`
	Difficulty    SkillLevel `gorm:"size:20;default:'Beginner'" json:"difficulty"`
	Rating        float64    `gorm:"default:0" json:"rating"`
	EnrolledCount int        `gorm:"default:0" json:"enrolledCount"`
	TotalLessons  int        `gorm:"default:0" json:"totalLessons"`
	IsPublished   bool       `gorm:"default:false;index" json:"isPublished"`
}

func (Course) TableName() string {
	return "courses"
}
