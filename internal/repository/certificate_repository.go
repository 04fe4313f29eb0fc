package repository

import (
	"errors"

	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) FindByUserCourse(userID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// CreateIdempotent 借助 (user_id, course_id) 唯一索引实现幂等签发：
// 撞唯一键时返回已存在的证书，号码与校验码不会重新生成。
// created 标识本次是否真的新建了一张证书。
func (r *CertificateRepository) CreateIdempotent(cert *model.Certificate) (*model.Certificate, bool, error) {
	err := r.DB.Create(cert).Error
	if err == nil {
		return cert, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := r.FindByUserCourse(cert.UserID, cert.CourseID)
		return existing, false, findErr
	}
	return nil, false, err
}

func (r *CertificateRepository) ListActiveByUser(userID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.Where("user_id = ? AND status = ?", userID, model.CertificateActive).
		Order("issue_date desc").Find(&certs).Error
	return certs, err
}

func (r *CertificateRepository) FindByID(id uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.First(&cert, id).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// FindByCode 证书号或校验码均可查询。
func (r *CertificateRepository) FindByCode(code string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("certificate_number = ? OR verification_code = ?", code, code).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
