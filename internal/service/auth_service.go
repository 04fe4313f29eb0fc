package service

import (
	"errors"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/event"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 超过该时长未活跃的用户登录时视为回归用户
const returnThreshold = 72 * time.Hour

type AuthService struct {
	Users *repository.UserRepository
	JWT   config.JWTConfig
	Bus   *event.Bus
}

func NewAuthService(users *repository.UserRepository, jwtCfg config.JWTConfig, bus *event.Bus) *AuthService {
	return &AuthService{Users: users, JWT: jwtCfg, Bus: bus}
}

type RegisterRequest struct {
	Name             string   `json:"name" binding:"required,min=2,max=50"`
	Email            string   `json:"email" binding:"required,email"`
	Password         string   `json:"password" binding:"required,min=6"`
	SkillLevel       string   `json:"skillLevel"`
	PreferredTopics  []string `json:"preferredTopics"`
	LearningGoals    string   `json:"learningGoals"`
	TimeAvailability string   `json:"timeAvailability"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *AuthService) Register(req RegisterRequest) (*AuthResponse, error) {
	if _, err := s.Users.FindByEmail(req.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	skillLevel := model.SkillLevel(req.SkillLevel)
	switch skillLevel {
	case model.Beginner, model.Intermediate, model.Advanced:
	default:
		skillLevel = model.Beginner
	}

	availability := model.TimeAvailability(req.TimeAvailability)
	switch availability {
	case model.FullTime, model.PartTime, model.Flexible:
	default:
		availability = model.Flexible
	}

	now := time.Now()
	user := &model.User{
		Name:             req.Name,
		Email:            req.Email,
		Password:         string(hashed),
		Role:             model.Student,
		SkillLevel:       skillLevel,
		PreferredTopics:  req.PreferredTopics,
		LearningGoals:    req.LearningGoals,
		TimeAvailability: availability,
		LastLogin:        now,
		LastSeen:         now,
	}
	if err := s.Users.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}

	token, err := util.GenerateJWT(user, s.JWT.Secret, s.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// Login 校验密码并签发 JWT。离开超过阈值的用户触发 user_return 事件。
func (s *AuthService) Login(req LoginRequest) (*AuthResponse, error) {
	user, err := s.Users.FindByEmail(req.Email)
	if err != nil {
		return nil, util.NewAuthorizationError("invalid email or password")
	}
	if user.Disabled {
		return nil, util.NewAuthorizationError("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.NewAuthorizationError("invalid email or password")
	}

	returning := !user.LastSeen.IsZero() && time.Since(user.LastSeen) > returnThreshold

	if err := s.Users.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
	}

	if returning && s.Bus != nil {
		s.Bus.Publish(event.Event{Type: event.UserReturn, UserID: user.ID})
	}

	token, err := util.GenerateJWT(user, s.JWT.Secret, s.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *AuthService) Me(userID uint) (*model.User, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}
