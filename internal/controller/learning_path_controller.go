package controller

import (
	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LearningPathController struct {
	PathService           *service.LearningPathService
	RecommendationService *service.RecommendationService
}

func NewLearningPathController(
	pathService *service.LearningPathService,
	recommendationService *service.RecommendationService,
) *LearningPathController {
	return &LearningPathController{
		PathService:           pathService,
		RecommendationService: recommendationService,
	}
}

// Generate godoc
// @Summary 生成个性化学习路径
// @Description 按最近测评结果与用户画像排序选课；旧的活跃路径自动转为 paused
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.LearningPath} "生成成功"
// @Router /api/learning-path/generate [post]
func (c *LearningPathController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	path, err := c.PathService.Generate(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, path)
}

// Active godoc
// @Summary 当前活跃路径
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.LearningPath} "成功"
// @Failure 404 {object} util.Response "没有活跃路径"
// @Router /api/learning-path/active [get]
func (c *LearningPathController) Active(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	path, err := c.PathService.Active(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// List godoc
// @Summary 全部学习路径
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.LearningPath} "成功"
// @Router /api/learning-path [get]
func (c *LearningPathController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	paths, err := c.PathService.List(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, paths)
}

// GetByID godoc
// @Summary 路径详情
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "路径 ID"
// @Success 200 {object} util.Response{data=model.LearningPath} "成功"
// @Failure 404 {object} util.Response "路径不存在"
// @Router /api/learning-path/{id} [get]
func (c *LearningPathController) GetByID(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	path, err := c.PathService.GetByID(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

type UpdatePathStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus godoc
// @Summary 修改路径状态
// @Description 激活一条路径会受单活跃约束保护，与其他活跃路径冲突时返回业务错误
// @Tags 学习路径
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "路径 ID"
// @Param   body body UpdatePathStatusRequest true "目标状态"
// @Success 200 {object} util.Response{data=model.LearningPath} "成功"
// @Failure 400 {object} util.Response "状态非法或冲突"
// @Router /api/learning-path/{id}/status [put]
func (c *LearningPathController) UpdateStatus(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdatePathStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.PathService.UpdateStatus(claims.UserID, util.MustParseUint(ctx.Param("id")), model.PathStatus(req.Status))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

type LessonProgressRequest struct {
	LessonID uint   `json:"lessonId" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// UpdateProgress godoc
// @Summary 上报课时进度
// @Description 课时完成驱动路径课程进度与整体进度推进，课程完成时自动激活下一门
// @Tags 学习路径
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body LessonProgressRequest true "课时进度"
// @Success 200 {object} util.Response{data=model.LearningPath} "成功"
// @Failure 404 {object} util.Response "课时或活跃路径不存在"
// @Router /api/learning-path/progress [put]
func (c *LearningPathController) UpdateProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req LessonProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.PathService.ApplyLessonProgress(claims.UserID, req.LessonID, model.ProgressStatus(req.Status))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// Recommendations godoc
// @Summary 学习建议聚合视图
// @Description 下一步建议、弱项练习课程与近期建议列表
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.RecommendationOverview} "成功"
// @Router /api/learning-path/recommendations [get]
func (c *LearningPathController) Recommendations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	overview, err := c.RecommendationService.Overview(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// NextAction godoc
// @Summary 下一步建议
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Recommendation} "成功，无建议时 data 为 null"
// @Router /api/learning-path/recommendations/next [get]
func (c *LearningPathController) NextAction(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	rec, err := c.RecommendationService.NextAction(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}

type UpdateRecommendationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateRecommendationStatus godoc
// @Summary 标记建议状态
// @Description 标记为 viewed / acted / dismissed
// @Tags 学习路径
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "建议 ID"
// @Param   body body UpdateRecommendationStatusRequest true "目标状态"
// @Success 200 {object} util.Response{data=model.Recommendation} "成功"
// @Failure 404 {object} util.Response "建议不存在"
// @Router /api/learning-path/recommendations/{id}/status [put]
func (c *LearningPathController) UpdateRecommendationStatus(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateRecommendationStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rec, err := c.RecommendationService.UpdateStatus(
		claims.UserID,
		util.MustParseUint(ctx.Param("id")),
		model.RecommendationStatus(req.Status),
	)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}
