package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"community_hub/internal/service"
)

type PostHandler struct {
	svc *service.PostService
	log logrus.FieldLogger
}

type AddPostReq struct {
	Content string `json:"content"`
}

func NewPostHandler(svc *service.PostService, log logrus.FieldLogger) *PostHandler {
	return &PostHandler{svc: svc, log: log}
}

// AddPost 发帖，空 body 按空内容处理，格式错误的 body 直接 400
func (h *PostHandler) AddPost(c *gin.Context) {
	communityID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AddPostReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid params"})
		return
	}

	post, err := h.svc.AddPost(c.Request.Context(), communityID, currentUserID(c), req.Content)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Notifications(c *gin.Context) {
	list, err := h.svc.Notifications(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
