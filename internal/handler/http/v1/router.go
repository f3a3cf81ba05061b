package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Анонимная подача отчета об инциденте
	api.POST("/reports", h.submitReport)

	// Аутентификация администраторов
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.login)
		auth.POST("/logout", h.logout)
	}

	// Админский контур: сессия обязательна на каждом маршруте
	admin := api.Group("/admin")
	admin.Use(SessionAuthMiddleware(h.sessions, h.adminService, h.cfg, h.logger))
	{
		admin.GET("/incidents", h.listIncidents)
		admin.GET("/incidents/export", h.exportIncidents)

		accounts := admin.Group("/accounts")
		{
			accounts.GET("", h.listAccounts)
			accounts.POST("", h.createAccount)
			accounts.POST("/:id/activate", h.activateAccount)
			accounts.POST("/:id/deactivate", h.deactivateAccount)
			accounts.POST("/:id/password", h.resetAccountPassword)
			accounts.DELETE("/:id", h.deleteAccount)
		}
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
