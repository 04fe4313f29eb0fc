package controller

import (
	"strconv"

	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
}

func NewAssessmentController(assessmentService *service.AssessmentService) *AssessmentController {
	return &AssessmentController{AssessmentService: assessmentService}
}

// GetCategories godoc
// @Summary 题库类别概览
// @Description 返回各类别的题量与难度分布，结果缓存 10 分钟；公开接口
// @Tags 测评
// @Produce  json
// @Success 200 {object} util.Response{data=[]repository.CategorySummary} "成功"
// @Router /api/assessment/categories [get]
func (c *AssessmentController) GetCategories(ctx *gin.Context) {
	summaries, err := c.AssessmentService.GetCategories(ctx.Request.Context())
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summaries)
}

// GetQuestions godoc
// @Summary 抽取测评题目
// @Description 按类别与难度抽题并脱敏；缺省时回落到用户偏好与技能等级
// @Tags 测评
// @Produce  json
// @Security BearerAuth
// @Param   category query string false "题目类别"
// @Param   difficulty query string false "难度 (Beginner/Intermediate/Advanced/all)"
// @Param   count query int false "题目数量，默认 10"
// @Success 200 {object} util.Response{data=[]model.SanitizedQuestion} "成功"
// @Router /api/assessment/questions [get]
func (c *AssessmentController) GetQuestions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	count, _ := strconv.Atoi(ctx.DefaultQuery("count", "10"))
	questions, err := c.AssessmentService.GetQuestions(
		claims.UserID,
		ctx.Query("category"),
		ctx.Query("difficulty"),
		count,
	)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// Submit godoc
// @Summary 提交测评答卷
// @Description 判分、分析强弱项并按结果调整技能等级
// @Tags 测评
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.SubmitAssessmentRequest true "答卷"
// @Success 201 {object} util.Response{data=model.Assessment} "判分结果"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/assessment/submit [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assessment, err := c.AssessmentService.Submit(claims.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, assessment)
}

// History godoc
// @Summary 测评历史
// @Tags 测评
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "条数，默认 10"
// @Success 200 {object} util.Response{data=[]model.Assessment} "成功"
// @Router /api/assessment/history [get]
func (c *AssessmentController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	assessments, err := c.AssessmentService.History(claims.UserID, limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, assessments)
}

// GetByID godoc
// @Summary 测评详情
// @Description 含逐题作答明细，仅限本人查看
// @Tags 测评
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测评 ID"
// @Success 200 {object} util.Response{data=model.Assessment} "成功"
// @Failure 403 {object} util.Response "无权查看"
// @Failure 404 {object} util.Response "测评不存在"
// @Router /api/assessment/{id} [get]
func (c *AssessmentController) GetByID(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	assessment, err := c.AssessmentService.GetByID(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, assessment)
}

// CreateQuestion godoc
// @Summary 录入题目
// @Description 向题库新增一道题，仅限管理员
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   question body service.CreateQuestionRequest true "题目内容"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "参数错误"
// @Failure 403 {object} util.Response "无权操作"
// @Router /api/admin/questions [post]
func (c *AssessmentController) CreateQuestion(ctx *gin.Context) {
	var req service.CreateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.AssessmentService.CreateQuestion(ctx.Request.Context(), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// QuestionBankStats godoc
// @Summary 题库统计
// @Description 题库总量与各类别分布，仅限管理员
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.BankStats} "成功"
// @Failure 403 {object} util.Response "无权查看"
// @Router /api/admin/questions/stats [get]
func (c *AssessmentController) QuestionBankStats(ctx *gin.Context) {
	stats, err := c.AssessmentService.QuestionBankStats()
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
