package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"feedback-board/internal/service"
	"feedback-board/internal/session"
)

const invalidCredentialsMessage = "Invalid username/password."

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	feedback service.FeedbackService
	guard    service.Guard
	sessions session.Manager
	exports  service.ExportService
	cookies  session.CookieOptions
	logger   logrus.FieldLogger
}

func NewHandler(
	users service.UserService,
	feedback service.FeedbackService,
	guard service.Guard,
	sessions session.Manager,
	exports service.ExportService,
	cookies session.CookieOptions,
	logger logrus.FieldLogger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:    users,
		feedback: feedback,
		guard:    guard,
		sessions: sessions,
		exports:  exports,
		cookies:  cookies,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/register")
	})
	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.POST("/logout", h.logout)

	users := router.Group("/users/:username")
	{
		users.GET("", h.profile)
		users.POST("/delete", h.deleteUser)
		users.POST("/feedback", h.createFeedback)
		users.POST("/export", h.exportFeedback)
	}

	feedback := router.Group("/feedback/:id")
	{
		feedback.GET("", h.getFeedback)
		feedback.POST("/update", h.updateFeedback)
		feedback.POST("/delete", h.deleteFeedback)
	}

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func (h *Handler) carrier(c *gin.Context) session.Carrier {
	return session.NewCookieCarrier(c, h.cookies)
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

// writeError maps the service error taxonomy to a response and aborts.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
	case errors.Is(err, service.ErrDuplicateUsername):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"errors": gin.H{"username": "Username already exists."}})
	case errors.Is(err, service.ErrDuplicateEmail):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"errors": gin.H{"email": "Email already exists."}})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": gin.H{"username": invalidCredentialsMessage}})
	case errors.Is(err, service.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrStorageDisabled):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
