package model

// swagger:model Question
type Question struct {
	BaseModel
	Text          string     `gorm:"type:text;not null" json:"text"`
	Options       StringList `gorm:"type:text;not null" json:"options"`
	CorrectAnswer int        `gorm:"not null" json:"-"`
	Category      string     `gorm:"size:100;index;not null" json:"category"`
	Tags          StringList `gorm:"type:text" json:"tags"`
	Difficulty    SkillLevel `gorm:"size:20;default:'Beginner'" json:"difficulty"`
	Points        int        `gorm:"default:10" json:"points"`
	TimeLimit     int        `gorm:"default:30" json:"timeLimit"`
}

func (Question) TableName() string {
	return "questions"
}

// SanitizedQuestion 答题时下发给客户端的题目视图，不含正确答案。
type SanitizedQuestion struct {
	ID         uint       `json:"id"`
	Text       string     `json:"text"`
	Options    StringList `json:"options"`
	Category   string     `json:"category"`
	Difficulty SkillLevel `json:"difficulty"`
	Points     int        `json:"points"`
	TimeLimit  int        `json:"timeLimit"`
}

func (q *Question) Sanitize() SanitizedQuestion {
	return SanitizedQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Options:    q.Options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Points:     q.Points,
		TimeLimit:  q.TimeLimit,
	}
}
