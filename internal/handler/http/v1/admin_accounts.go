package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/incident_reporting_system/internal/service"
)

// actorID возвращает id администратора, положенный в контекст middleware-ом
func actorID(c *gin.Context) int64 {
	id, _ := c.Get(adminIDKey)
	actorID, _ := id.(int64)
	return actorID
}

func parseAccountID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return 0, false
	}
	return id, true
}

// @Summary List admin accounts
// @Description Get all admin accounts. Password hashes are never returned. Requires an admin session.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security AdminSession
// @Success 200 {array} AccountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/accounts [get]
func (h *Handler) listAccounts(c *gin.Context) {
	log := h.logger.WithField("method", "listAccounts")

	accounts, err := h.adminService.ListAccounts(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list accounts from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToAccountResponses(accounts))
}

// @Summary Create an admin account
// @Description Create a new admin account. Duplicate usernames are rejected. Requires an admin session.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security AdminSession
// @Param account body CreateAccountRequest true "Account creation request"
// @Success 201 {object} AccountResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Username already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/accounts [post]
func (h *Handler) createAccount(c *gin.Context) {
	var input CreateAccountRequest
	log := h.logger.WithField("method", "createAccount")

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

	account, err := h.adminService.CreateAccount(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
			return
		}
		log.WithError(err).Error("Failed to create account in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, ModelToAccountResponse(account))
}

// setAccountActive - общий путь для activate/deactivate
func (h *Handler) setAccountActive(c *gin.Context, active bool) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "setAccountActive").WithField("id", id)

	err := h.adminService.SetAccountActive(c.Request.Context(), actorID(c), id, active)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfAction):
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot change the active flag of your own account"})
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		default:
			log.WithError(err).Error("Failed to update account in service")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Activate an admin account
// @Description Activate an admin account by ID. Idempotent. Requires an admin session.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Invalid account ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Cannot act on own account"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /admin/accounts/{id}/activate [post]
func (h *Handler) activateAccount(c *gin.Context) {
	h.setAccountActive(c, true)
}

// @Summary Deactivate an admin account
// @Description Deactivate an admin account by ID. Idempotent; open sessions of the account are invalidated. Requires an admin session.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Invalid account ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Cannot act on own account"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /admin/accounts/{id}/deactivate [post]
func (h *Handler) deactivateAccount(c *gin.Context) {
	h.setAccountActive(c, false)
}

// @Summary Reset an admin account password
// @Description Replace the password of an admin account. All open sessions of the account are invalidated. Requires an admin session.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path int true "Account ID"
// @Param password body ResetPasswordRequest true "New password"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/accounts/{id}/password [post]
func (h *Handler) resetAccountPassword(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "resetAccountPassword").WithField("id", id)

	var input ResetPasswordRequest
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

	if err := h.adminService.ResetPassword(c.Request.Context(), id, input.NewPassword); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		log.WithError(err).Error("Failed to reset password in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Delete an admin account
// @Description Delete an admin account by ID. Deleting your own account is forbidden. Requires an admin session.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path int true "Account ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid account ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Cannot delete own account"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /admin/accounts/{id} [delete]
func (h *Handler) deleteAccount(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteAccount").WithField("id", id)

	err := h.adminService.DeleteAccount(c.Request.Context(), actorID(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfAction):
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot delete your own account"})
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		default:
			log.WithError(err).Error("Failed to delete account in service")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
