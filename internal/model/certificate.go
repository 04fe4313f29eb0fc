package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateStatus string

const (
	CertificateActive  CertificateStatus = "active"
	CertificateRevoked CertificateStatus = "revoked"
)

// Certificate 每 (user, course) 唯一，证书号与校验码创建时生成且不再变更。
// swagger:model Certificate
type Certificate struct {
	BaseModel
	UserID            uint              `gorm:"uniqueIndex:idx_cert_user_course;not null" json:"userId"`
	CourseID          uint              `gorm:"uniqueIndex:idx_cert_user_course;not null" json:"courseId"`
	ExamID            uint              `gorm:"index" json:"examId"`
	CertificateNumber string            `gorm:"size:30;uniqueIndex;not null" json:"certificateNumber"`
	VerificationCode  string            `gorm:"size:30;uniqueIndex" json:"verificationCode"`
	IssueDate         time.Time         `json:"issueDate"`
	Score             int               `gorm:"not null" json:"score"` // 结业考试百分比
	Grade             string            `gorm:"size:5;not null" json:"grade"`
	Status            CertificateStatus `gorm:"size:20;default:'active'" json:"status"`
	LessonsCompleted  int               `gorm:"default:0" json:"lessonsCompleted"`
	TotalTimeSpent    int               `gorm:"default:0" json:"totalTimeSpent"` // 分钟
	IssuerName        string            `gorm:"size:100;default:'LearnSphere'" json:"issuerName"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.CertificateNumber == "" {
		c.CertificateNumber = fmt.Sprintf("CERT-%s-%s", time.Now().Format("200601"), randomToken(6))
	}
	if c.VerificationCode == "" {
		c.VerificationCode = "VER-" + randomToken(8)
	}
	if c.IssueDate.IsZero() {
		c.IssueDate = time.Now()
	}
	if c.Grade == "" {
		c.Grade = GradeForScore(c.Score)
	}
	return nil
}

// GradeForScore 分数到等级的阶梯映射。
func GradeForScore(score int) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "B+"
	case score >= 80:
		return "B"
	case score >= 75:
		return "C+"
	case score >= 70:
		return "C"
	}
	return "Pass"
}

func randomToken(n int) string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
