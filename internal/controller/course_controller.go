package controller

import (
	"learnsphere_backend/internal/service"
	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// List godoc
// @Summary 已发布课程目录
// @Description 公开接口，无需登录
// @Tags 课程
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.CourseService.ListPublished()
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetDetail godoc
// @Summary 课程详情
// @Description 课时列表；已登录时附带当前用户的完成情况，匿名访问完成数为 0
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程 ID"
// @Success 200 {object} util.Response{data=service.CourseDetail} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetDetail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	userID := uint(0)
	if claims != nil {
		userID = claims.UserID
	}

	detail, err := c.CourseService.GetDetail(userID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// GetLesson godoc
// @Summary 课时详情
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程 ID"
// @Param   lessonId path int true "课时 ID"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/courses/{id}/lessons/{lessonId} [get]
func (c *CourseController) GetLesson(ctx *gin.Context) {
	lesson, err := c.CourseService.GetLesson(
		util.MustParseUint(ctx.Param("id")),
		util.MustParseUint(ctx.Param("lessonId")),
	)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}
