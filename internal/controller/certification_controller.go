package controller

import (
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificationController struct {
	CertificationService *service.CertificationService
}

func NewCertificationController(certService *service.CertificationService) *CertificationController {
	return &CertificationController{CertificationService: certService}
}

// GetExam godoc
// @Summary 结业考试概览
// @Description 完成度达标后可见；首次请求时按课程类别题库自动生成考试
// @Tags 认证考试
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Success 200 {object} util.Response{data=service.ExamSummary} "成功"
// @Failure 400 {object} util.Response "完成度不足"
// @Router /api/certification/courses/{courseId}/exam [get]
func (c *CertificationController) GetExam(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.CertificationService.GetExam(claims.UserID, util.MustParseUint(ctx.Param("courseId")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Start godoc
// @Summary 开始考试
// @Description 已有进行中的尝试时续用；只有已完成的尝试计入次数上限
// @Tags 认证考试
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Success 201 {object} util.Response{data=service.StartedExam} "开考成功"
// @Failure 400 {object} util.Response "完成度不足或次数耗尽"
// @Router /api/certification/courses/{courseId}/exam/start [post]
func (c *CertificationController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	started, err := c.CertificationService.Start(claims.UserID, util.MustParseUint(ctx.Param("courseId")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, started)
}

// Submit godoc
// @Summary 提交考试答卷
// @Description 超时提交记为 timed_out 不判及格；及格自动签发证书
// @Tags 认证考试
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   attemptId path int true "答题记录 ID"
// @Param   body body service.SubmitExamRequest true "答卷"
// @Success 200 {object} util.Response{data=service.ExamResult} "判分结果"
// @Failure 400 {object} util.Response "尝试已提交"
// @Failure 403 {object} util.Response "非本人尝试"
// @Router /api/certification/attempts/{attemptId}/submit [post]
func (c *CertificationController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.CertificationService.Submit(claims.UserID, util.MustParseUint(ctx.Param("attemptId")), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Abandon godoc
// @Summary 放弃进行中的考试
// @Description 放弃的尝试不计入次数上限
// @Tags 认证考试
// @Produce  json
// @Security BearerAuth
// @Param   attemptId path int true "答题记录 ID"
// @Success 200 {object} util.Response{data=model.ExamAttempt} "成功"
// @Router /api/certification/attempts/{attemptId}/abandon [post]
func (c *CertificationController) Abandon(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.CertificationService.Abandon(claims.UserID, util.MustParseUint(ctx.Param("attemptId")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// ListCertificates godoc
// @Summary 我的证书
// @Tags 认证考试
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Certificate} "成功"
// @Router /api/certification/certificates [get]
func (c *CertificationController) ListCertificates(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	certs, err := c.CertificationService.ListCertificates(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// GetCertificate godoc
// @Summary 证书详情
// @Tags 认证考试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "证书 ID"
// @Success 200 {object} util.Response{data=model.Certificate} "成功"
// @Failure 404 {object} util.Response "证书不存在"
// @Router /api/certification/certificates/{id} [get]
func (c *CertificationController) GetCertificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	cert, err := c.CertificationService.CertificateByID(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}

// Verify godoc
// @Summary 证书公开校验
// @Description 按证书号或校验码查询，无需登录；吊销证书返回 valid=false
// @Tags 认证考试
// @Produce  json
// @Param   code path string true "证书号或校验码"
// @Success 200 {object} util.Response{data=service.VerifiedCertificate} "成功"
// @Failure 404 {object} util.Response "证书不存在"
// @Router /api/certification/verify/{code} [get]
func (c *CertificationController) Verify(ctx *gin.Context) {
	verified, err := c.CertificationService.Verify(ctx.Param("code"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, verified)
}
