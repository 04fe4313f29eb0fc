package service

import (
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/util"
)

// SubmittedAnswer 客户端提交的单题作答。
type SubmittedAnswer struct {
	QuestionID uint `json:"questionId" binding:"required"`
	Answer     int  `json:"answerIndex"`
	TimeTaken  int  `json:"timeTaken"`
}

// GradedAnswer 单题判分结果及类别归属。
type GradedAnswer struct {
	QuestionID     uint   `json:"questionId"`
	QuestionText   string `json:"questionText"`
	SelectedAnswer int    `json:"selectedAnswer"`
	CorrectAnswer  int    `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	TimeTaken      int    `json:"timeTaken"`
	Category       string `json:"category"`
	Points         int    `json:"points"`
}

type GradeResult struct {
	Score    int
	MaxScore int
	Answers  []GradedAnswer
}

// GradeAnswers 按题库判分。题目缺失时整题跳过，既不计分也不计入满分分母。
// 纯函数，无副作用。
func GradeAnswers(questions map[uint]*model.Question, answers []SubmittedAnswer) GradeResult {
	result := GradeResult{Answers: make([]GradedAnswer, 0, len(answers))}

	for _, ans := range answers {
		question, ok := questions[ans.QuestionID]
		if !ok {
			continue
		}

		points := question.Points
		if points <= 0 {
			points = 10
		}

		isCorrect := question.CorrectAnswer == ans.Answer
		result.MaxScore += points

		awarded := 0
		if isCorrect {
			awarded = points
			result.Score += points
		}

		result.Answers = append(result.Answers, GradedAnswer{
			QuestionID:     question.ID,
			QuestionText:   question.Text,
			SelectedAnswer: ans.Answer,
			CorrectAnswer:  question.CorrectAnswer,
			IsCorrect:      isCorrect,
			TimeTaken:      ans.TimeTaken,
			Category:       question.Category,
			Points:         awarded,
		})
	}

	return result
}

// Percentage 整体得分率，满分为 0 时固定返回 0。
func (r GradeResult) Percentage() int {
	return util.RoundPercent(r.Score, r.MaxScore)
}
