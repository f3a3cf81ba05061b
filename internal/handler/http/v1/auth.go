package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/incident_reporting_system/internal/config"
	"github.com/reportdesk/incident_reporting_system/internal/service"
	"github.com/sirupsen/logrus"
)

// adminIDKey - ключ gin-контекста с id аутентифицированного администратора
const adminIDKey = "adminID"

// SessionAuthMiddleware - middleware аутентификации по сессионной cookie.
// Проверяет наличие сессии в хранилище и активность учетной записи;
// все режимы отказа дают одинаковый ответ 401.
func SessionAuthMiddleware(sessions service.SessionStore, adminService service.AdminService, cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.SessionCookieName)
		if err != nil || token == "" {
			log.Warn("Session cookie missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		adminID, err := sessions.Get(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Warn("Session lookup failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		account, err := adminService.GetAccount(c.Request.Context(), adminID)
		if err != nil || !account.IsActive {
			log.WithField("admin_id", adminID).Warn("Session refers to a missing or deactivated account")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(adminIDKey, adminID)
		c.Next()
	}
}

// @Summary Admin login
// @Description Authenticate an admin account and start a session. All failure modes return the same generic rejection.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Admin credentials"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Invalid username or password"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.adminService.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		log.WithError(err).Error("Failed to authenticate in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), account.ID)
	if err != nil {
		log.WithError(err).Error("Failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieName, token, int(h.cfg.SessionTTL.Seconds()), "/", "", h.cfg.SessionCookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Admin logout
// @Description End the current admin session and expire the cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	log := h.logger.WithField("method", "logout")

	token, err := c.Cookie(h.cfg.SessionCookieName)
	if err == nil && token != "" {
		if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
			log.WithError(err).Warn("Failed to delete session")
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieName, "", -1, "/", "", h.cfg.SessionCookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
