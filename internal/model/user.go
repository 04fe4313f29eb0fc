package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

type SkillLevel string

const (
	Beginner     SkillLevel = "Beginner"
	Intermediate SkillLevel = "Intermediate"
	Advanced     SkillLevel = "Advanced"
)

// Promote 提升一级，封顶 Advanced。
func (s SkillLevel) Promote() SkillLevel {
	switch s {
	case Beginner:
		return Intermediate
	case Intermediate:
		return Advanced
	}
	return s
}

// Demote 降低一级，保底 Beginner。
func (s SkillLevel) Demote() SkillLevel {
	switch s {
	case Advanced:
		return Intermediate
	case Intermediate:
		return Beginner
	}
	return s
}

type TimeAvailability string

const (
	FullTime TimeAvailability = "Full-time"
	PartTime TimeAvailability = "Part-time"
	Flexible TimeAvailability = "Flexible"
)

// CoursesPerWeek 时间投入档位对应的每周课程数。
func (t TimeAvailability) CoursesPerWeek() int {
	switch t {
	case FullTime:
		return 3
	case PartTime:
		return 2
	}
	return 1
}

// HoursPerWeek 时间投入档位对应的每周学习小时数。
func (t TimeAvailability) HoursPerWeek() int {
	switch t {
	case FullTime:
		return 40
	case PartTime:
		return 20
	}
	return 10
}

// swagger:model User
type User struct {
	BaseModel
	Name             string           `gorm:"size:100;not null" json:"name"`
	Email            string           `gorm:"size:100;unique;not null" json:"email"`
	Password         string           `gorm:"size:100;not null" json:"-"`
	Role             UserRole         `gorm:"size:20;default:'student'" json:"role"`
	SkillLevel       SkillLevel       `gorm:"size:20;default:'Beginner'" json:"skillLevel"`
	PreferredTopics  StringList       `gorm:"type:text" json:"preferredTopics"`
	LearningGoals    string           `gorm:"type:text" json:"learningGoals"`
	TimeAvailability TimeAvailability `gorm:"size:20;default:'Flexible'" json:"timeAvailability"`
	Avatar           string           `gorm:"size:255" json:"avatar"`
	Disabled         bool             `gorm:"default:false" json:"disabled"`
	LastLogin        time.Time        `json:"lastLogin"`
	LastSeen         time.Time        `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
