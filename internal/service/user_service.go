package service

import (
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
)

type UserService struct {
	Users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{Users: users}
}

type UpdateProfileRequest struct {
	Name             string   `json:"name" binding:"omitempty,min=2,max=50"`
	PreferredTopics  []string `json:"preferredTopics"`
	LearningGoals    string   `json:"learningGoals"`
	TimeAvailability string   `json:"timeAvailability"`
}

// UpdateProfile 局部更新：零值字段不覆盖。技能等级不在此处修改，
// 只能由测评结果驱动。
func (s *UserService) UpdateProfile(userID uint, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.PreferredTopics != nil {
		user.PreferredTopics = req.PreferredTopics
	}
	if req.LearningGoals != "" {
		user.LearningGoals = req.LearningGoals
	}
	if req.TimeAvailability != "" {
		availability := model.TimeAvailability(req.TimeAvailability)
		switch availability {
		case model.FullTime, model.PartTime, model.Flexible:
			user.TimeAvailability = availability
		default:
			return nil, util.NewValidationError("invalid time availability")
		}
	}

	if err := s.Users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateAvatar(userID uint, avatarURL string) (*model.User, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	user.Avatar = avatarURL
	if err := s.Users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Touch 刷新活跃时间，由活跃度中间件异步调用。
func (s *UserService) Touch(userID uint) error {
	return s.Users.UpdateLastSeen(userID)
}
