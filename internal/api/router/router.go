package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradelink/backend/config"
	"gradelink/backend/internal/api/handler"
	"gradelink/backend/internal/api/middleware"
	"gradelink/backend/pkg/jwt"
	"gradelink/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/token", h.Auth.Token)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			// 成绩导出（SMS 轮询）
			export := authorized.Group("/export")
			export.Use(middleware.RateLimit(rdb, cfg.Export.RateLimit, time.Minute))
			{
				export.GET("/grades", middleware.RoleAuth("sms", "admin"), h.Export.GetCompleteGrades)
			}

			// 传输状态
			authorized.POST("/transfers/:gradeid/toggle", middleware.RoleAuth("admin"), h.Transfer.ToggleStatus)

			// 宿主系统事件入口
			authorized.POST("/events/user-graded", middleware.RoleAuth("admin"), h.Transfer.HandleUserGraded)

			// 管理报表
			report := authorized.Group("/admin/report")
			report.Use(middleware.RoleAuth("admin"))
			{
				report.GET("", h.Report.List)
				report.GET("/export", h.Report.Export)
				report.PUT("/status", h.Report.BulkSetStatus)
			}
		}
	}

	return r
}
