package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sort"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/event"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/logger"
	"learnsphere_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	categoriesCacheKey = "assessment:categories"
	categoriesCacheTTL = 10 * time.Minute
)

type AssessmentService struct {
	Questions   *repository.QuestionRepository
	Assessments *repository.AssessmentRepository
	Users       *repository.UserRepository
	Redis       *redis.Client
	Engine      config.EngineConfig
	Bus         *event.Bus
}

func NewAssessmentService(
	questions *repository.QuestionRepository,
	assessments *repository.AssessmentRepository,
	users *repository.UserRepository,
	rdb *redis.Client,
	engine config.EngineConfig,
	bus *event.Bus,
) *AssessmentService {
	return &AssessmentService{
		Questions:   questions,
		Assessments: assessments,
		Users:       users,
		Redis:       rdb,
		Engine:      engine,
		Bus:         bus,
	}
}

// GetCategories 题库类别概览，Redis 缓存 10 分钟。
func (s *AssessmentService) GetCategories(ctx context.Context) ([]repository.CategorySummary, error) {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, categoriesCacheKey).Bytes(); err == nil {
			var summaries []repository.CategorySummary
			if json.Unmarshal(cached, &summaries) == nil {
				return summaries, nil
			}
		}
	}

	summaries, err := s.Questions.Categories()
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(summaries); err == nil {
			if err := s.Redis.Set(ctx, categoriesCacheKey, data, categoriesCacheTTL).Err(); err != nil {
				logger.Log.Warn("failed to cache categories", zap.Error(err))
			}
		}
	}
	return summaries, nil
}

// GetQuestions 为用户抽取测评题目并脱敏。未指定类别时回落到用户偏好主题，
// 未指定难度时回落到用户技能等级；命中太少则放开筛选随机补齐。
func (s *AssessmentService) GetQuestions(userID uint, category string, difficulty string, count int) ([]model.SanitizedQuestion, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	if count <= 0 {
		count = 10
	}

	level := model.SkillLevel(difficulty)
	if difficulty == "" || difficulty == "all" {
		level = user.SkillLevel
	}

	var questions []model.Question
	switch {
	case category != "" && category != "all":
		questions, err = s.Questions.ListByFilter(category, level, 0)
	case len(user.PreferredTopics) > 0:
		questions, err = s.Questions.ListByCategories(user.PreferredTopics, 0)
	default:
		questions, err = s.Questions.ListByFilter("", level, 0)
	}
	if err != nil {
		return nil, err
	}

	if len(questions) < 5 {
		questions, err = s.Questions.ListAll(0)
		if err != nil {
			return nil, err
		}
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if len(questions) > count {
		questions = questions[:count]
	}

	sanitized := make([]model.SanitizedQuestion, len(questions))
	for i := range questions {
		sanitized[i] = questions[i].Sanitize()
	}
	return sanitized, nil
}

type CreateQuestionRequest struct {
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2"`
	CorrectAnswer int      `json:"correctAnswer"`
	Category      string   `json:"category" binding:"required"`
	Tags          []string `json:"tags"`
	Difficulty    string   `json:"difficulty"`
	Points        int      `json:"points"`
}

// CreateQuestion 管理员录题。写入成功后让类别缓存失效，
// 公开的类别概览下一次请求即可看到新类别。
func (s *AssessmentService) CreateQuestion(ctx context.Context, req CreateQuestionRequest) (*model.Question, error) {
	if req.CorrectAnswer < 0 || req.CorrectAnswer >= len(req.Options) {
		return nil, util.NewValidationError("correct answer index out of range")
	}

	level := model.SkillLevel(req.Difficulty)
	switch level {
	case model.Beginner, model.Intermediate, model.Advanced:
	case "":
		level = model.Beginner
	default:
		return nil, util.NewValidationError("invalid difficulty")
	}

	points := req.Points
	if points <= 0 {
		points = 10
	}

	question := &model.Question{
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Category:      req.Category,
		Tags:          req.Tags,
		Difficulty:    level,
		Points:        points,
	}
	if err := s.Questions.Create(question); err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if err := s.Redis.Del(ctx, categoriesCacheKey).Err(); err != nil {
			logger.Log.Warn("failed to invalidate categories cache", zap.Error(err))
		}
	}
	return question, nil
}

// BankStats 题库规模与类别分布，管理端用。
type BankStats struct {
	TotalQuestions int64                        `json:"totalQuestions"`
	Categories     []repository.CategorySummary `json:"categories"`
}

func (s *AssessmentService) QuestionBankStats() (*BankStats, error) {
	total, err := s.Questions.Count()
	if err != nil {
		return nil, err
	}
	categories, err := s.Questions.Categories()
	if err != nil {
		return nil, err
	}
	return &BankStats{TotalQuestions: total, Categories: categories}, nil
}

type SubmitAssessmentRequest struct {
	Answers        []SubmittedAnswer `json:"answers" binding:"required"`
	TotalTimeTaken int               `json:"totalTimeTaken"`
}

// Submit 判分、技能差距分析、技能等级调整，并发布 assessment_completed 事件。
// 空答卷不算错误：得分率为 0 且不产生类别数据。
func (s *AssessmentService) Submit(userID uint, req SubmitAssessmentRequest) (*model.Assessment, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	ids := make([]uint, 0, len(req.Answers))
	for _, a := range req.Answers {
		ids = append(ids, a.QuestionID)
	}

	questions := map[uint]*model.Question{}
	if len(ids) > 0 {
		questions, err = s.Questions.FindByIDs(ids)
		if err != nil {
			return nil, err
		}
	}

	graded := GradeAnswers(questions, req.Answers)
	percentage := graded.Percentage()

	categoryScores := aggregateCategories(graded.Answers)
	weakTopics, strongTopics := s.classifyTopics(categoryScores)

	assessment := &model.Assessment{
		UserID:         userID,
		Score:          graded.Score,
		MaxScore:       graded.MaxScore,
		Percentage:     percentage,
		TotalQuestions: len(req.Answers),
		Difficulty:     assessmentDifficulty(questions, graded.Answers),
		CategoryScores: categoryScores,
		WeakTopics:     weakTopics,
		StrongTopics:   strongTopics,
		TotalTimeTaken: req.TotalTimeTaken,
		CompletedAt:    time.Now(),
	}
	for _, g := range graded.Answers {
		assessment.Answers = append(assessment.Answers, model.AssessmentAnswer{
			QuestionID:     g.QuestionID,
			QuestionText:   g.QuestionText,
			SelectedAnswer: g.SelectedAnswer,
			CorrectAnswer:  g.CorrectAnswer,
			IsCorrect:      g.IsCorrect,
			TimeTaken:      g.TimeTaken,
			Category:       g.Category,
		})
	}

	if err := s.Assessments.Create(assessment); err != nil {
		return nil, err
	}
	monitoring.AssessmentsSubmitted.Inc()

	if next := s.adjustSkillLevel(user.SkillLevel, percentage); next != user.SkillLevel {
		if err := s.Users.UpdateSkillLevel(userID, next); err != nil {
			logger.Log.Error("failed to update skill level",
				zap.Uint("userId", userID), zap.Error(err))
		}
	}

	if s.Bus != nil {
		s.Bus.Publish(event.Event{
			Type:         event.AssessmentCompleted,
			UserID:       userID,
			AssessmentID: assessment.ID,
			WeakTopics:   weakTopics,
			Percentage:   percentage,
		})
	}

	return assessment, nil
}

// adjustSkillLevel 每次提交至多移动一级：达标升一级，不及格且非 Beginner 降一级。
func (s *AssessmentService) adjustSkillLevel(current model.SkillLevel, percentage int) model.SkillLevel {
	if percentage >= s.Engine.PromoteThreshold {
		return current.Promote()
	}
	if percentage < s.Engine.DemoteThreshold {
		return current.Demote()
	}
	return current
}

func (s *AssessmentService) classifyTopics(scores []model.CategoryScore) (model.StringList, model.StringList) {
	weak := model.StringList{}
	strong := model.StringList{}
	for _, cs := range scores {
		if cs.Percentage < s.Engine.WeakTopicThreshold {
			weak = append(weak, cs.Category)
		} else if cs.Percentage >= s.Engine.StrongTopicThreshold {
			strong = append(strong, cs.Category)
		}
	}
	return weak, strong
}

// aggregateCategories 按类别聚合正确率，输出顺序固定便于断言。
func aggregateCategories(answers []GradedAnswer) []model.CategoryScore {
	type stats struct {
		correct int
		total   int
	}
	byCategory := map[string]*stats{}
	order := []string{}

	for _, a := range answers {
		st, ok := byCategory[a.Category]
		if !ok {
			st = &stats{}
			byCategory[a.Category] = st
			order = append(order, a.Category)
		}
		st.total++
		if a.IsCorrect {
			st.correct++
		}
	}
	sort.Strings(order)

	scores := make([]model.CategoryScore, 0, len(order))
	for _, category := range order {
		st := byCategory[category]
		scores = append(scores, model.CategoryScore{
			Category:   category,
			Correct:    st.correct,
			Total:      st.total,
			Percentage: util.RoundPercent(st.correct, st.total),
		})
	}
	return scores
}

func assessmentDifficulty(questions map[uint]*model.Question, answers []GradedAnswer) string {
	if len(answers) == 0 {
		return "Mixed"
	}
	first := ""
	for _, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			continue
		}
		if first == "" {
			first = string(q.Difficulty)
		} else if first != string(q.Difficulty) {
			return "Mixed"
		}
	}
	if first == "" {
		return "Mixed"
	}
	return first
}

// History 不含逐题明细的测评历史。
func (s *AssessmentService) History(userID uint, limit int) ([]model.Assessment, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.Assessments.ListByUser(userID, limit)
}

// GetByID 仅允许本人查看。
func (s *AssessmentService) GetByID(userID, assessmentID uint) (*model.Assessment, error) {
	assessment, err := s.Assessments.FindByID(assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	if assessment.UserID != userID {
		return nil, util.NewAuthorizationError("not authorized to view this assessment")
	}
	return assessment, nil
}
