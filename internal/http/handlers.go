package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"feedback-board/internal/service"
	"feedback-board/internal/session"
)

func profilePath(username string) string {
	return "/users/" + username
}

// signedIn returns the current identity, if any.
func (h *Handler) signedIn(c *gin.Context, carrier session.Carrier) (string, bool) {
	username, ok, err := h.sessions.CurrentIdentity(c.Request.Context(), carrier)
	if err != nil {
		h.logger.WithError(err).Warn("resolve session")
		return "", false
	}
	return username, ok
}

func (h *Handler) register(c *gin.Context) {
	carrier := h.carrier(c)
	if username, ok := h.signedIn(c, carrier); ok {
		c.Redirect(http.StatusSeeOther, profilePath(username))
		return
	}

	var in service.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.sessions.Establish(c.Request.Context(), carrier, user.Username); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, profilePath(user.Username))
}

func (h *Handler) login(c *gin.Context) {
	carrier := h.carrier(c)
	if username, ok := h.signedIn(c, carrier); ok {
		c.Redirect(http.StatusSeeOther, profilePath(username))
		return
	}

	var in service.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		bindError(c, err)
		return
	}
	if err := in.Validate(); err != nil {
		h.writeError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.sessions.Establish(c.Request.Context(), carrier, user.Username); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, profilePath(user.Username))
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Clear(c.Request.Context(), h.carrier(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) profile(c *gin.Context) {
	ctx := c.Request.Context()
	username, err := h.guard.RequireUser(ctx, h.carrier(c), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	user, err := h.users.Get(ctx, username)
	if err != nil {
		h.writeError(c, err)
		return
	}
	items, err := h.feedback.ListByOwner(ctx, username)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		User:     userToResponse(*user),
		Feedback: feedbackListToResponse(items),
	})
}

func (h *Handler) deleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	carrier := h.carrier(c)
	username, err := h.guard.RequireUser(ctx, carrier, c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.users.Delete(ctx, username); err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.exports.Purge(ctx, username); err != nil {
		h.logger.WithError(err).WithField("username", username).Warn("purge exports after deletion")
	}
	if err := h.sessions.Clear(ctx, carrier); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) exportFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	username, err := h.guard.RequireUser(ctx, h.carrier(c), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	export, err := h.exports.Export(ctx, username)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, exportToResponse(*export))
}

func (h *Handler) createFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	username, err := h.guard.RequireUser(ctx, h.carrier(c), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	var in service.FeedbackInput
	if err := c.ShouldBind(&in); err != nil {
		bindError(c, err)
		return
	}

	if _, err := h.feedback.Create(ctx, username, in); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, profilePath(username))
}

func parseFeedbackID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid feedback id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) getFeedback(c *gin.Context) {
	id, ok := parseFeedbackID(c)
	if !ok {
		return
	}

	feedback, err := h.guard.RequireFeedback(c.Request.Context(), h.carrier(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedbackToResponse(*feedback))
}

func (h *Handler) updateFeedback(c *gin.Context) {
	id, ok := parseFeedbackID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	feedback, err := h.guard.RequireFeedback(ctx, h.carrier(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var in service.FeedbackInput
	if err := c.ShouldBind(&in); err != nil {
		bindError(c, err)
		return
	}

	if _, err := h.feedback.Update(ctx, feedback.ID, in); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, profilePath(feedback.Username))
}

func (h *Handler) deleteFeedback(c *gin.Context) {
	id, ok := parseFeedbackID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	feedback, err := h.guard.RequireFeedback(ctx, h.carrier(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.feedback.Delete(ctx, feedback.ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, profilePath(feedback.Username))
}
