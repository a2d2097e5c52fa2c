package handler

import (
	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/auth"
)

func (h *Handler) Signup(c *gin.Context) {
	var in auth.SignupInput
	if !h.bind(c, &in) {
		return
	}
	sess, err := h.Auth.Signup(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, sess)
}

func (h *Handler) Login(c *gin.Context) {
	var in auth.LoginInput
	if !h.bind(c, &in) {
		return
	}
	sess, err := h.Auth.Login(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, sess)
}

func (h *Handler) Me(c *gin.Context) {
	ok(c, currentIdentity(c))
}
