package app

import (
	"learnsphere_backend/docs"
	"learnsphere_backend/internal/middleware"
	"learnsphere_backend/internal/model"
	"learnsphere_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		// 题库类别概览，测评入口页无需登录即可展示
		public.GET("/assessment/categories", c.assessment.GetCategories)

		// 证书公开校验，雇主核验用
		public.GET("/certification/verify/:code", c.certification.Verify)
	}

	// 可选认证：匿名可浏览课程目录，已登录时附带个人完成情况
	optional := router.Group("/api")
	optional.Use(middleware.TryAuth(), middleware.ActivityMiddleware(s.user))
	{
		courses := optional.Group("/courses")
		{
			courses.GET("", c.course.List)
			courses.GET("/:id", c.course.GetDetail)
			courses.GET("/:id/lessons/:lessonId", c.course.GetLesson)
		}
	}

	// 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(s.user))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		users := authGroup.Group("/users")
		{
			users.PUT("/profile", c.user.UpdateProfile)
			users.POST("/avatar", c.user.UploadAvatar)
		}

		assessment := authGroup.Group("/assessment")
		{
			assessment.GET("/questions", c.assessment.GetQuestions)
			assessment.POST("/submit", c.assessment.Submit)
			assessment.GET("/history", c.assessment.History)
			assessment.GET("/:id", c.assessment.GetByID)
		}

		learningPath := authGroup.Group("/learning-path")
		{
			learningPath.POST("/generate", c.learningPath.Generate)
			learningPath.GET("", c.learningPath.List)
			learningPath.GET("/active", c.learningPath.Active)
			learningPath.PUT("/progress", c.learningPath.UpdateProgress)
			learningPath.GET("/recommendations", c.learningPath.Recommendations)
			learningPath.GET("/recommendations/next", c.learningPath.NextAction)
			learningPath.PUT("/recommendations/:id/status", c.learningPath.UpdateRecommendationStatus)
			learningPath.GET("/:id", c.learningPath.GetByID)
			learningPath.PUT("/:id/status", c.learningPath.UpdateStatus)
		}

		certification := authGroup.Group("/certification")
		{
			certification.GET("/courses/:courseId/exam", c.certification.GetExam)
			certification.POST("/courses/:courseId/exam/start", c.certification.Start)
			certification.POST("/attempts/:attemptId/submit", c.certification.Submit)
			certification.POST("/attempts/:attemptId/abandon", c.certification.Abandon)
			certification.GET("/certificates", c.certification.ListCertificates)
			certification.GET("/certificates/:id", c.certification.GetCertificate)
		}

		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.POST("/questions", c.assessment.CreateQuestion)
			admin.GET("/questions/stats", c.assessment.QuestionBankStats)
		}
	}
}
