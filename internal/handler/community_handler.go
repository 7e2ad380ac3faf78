package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"community_hub/internal/service"
)

type CommunityHandler struct {
	svc          *service.CommunityService
	maxIconBytes int64
	log          logrus.FieldLogger
}

func NewCommunityHandler(svc *service.CommunityService, maxIconBytes int64, log logrus.FieldLogger) *CommunityHandler {
	return &CommunityHandler{svc: svc, maxIconBytes: maxIconBytes, log: log}
}

// Create multipart 表单：name / description / rules / icon(可选)
func (h *CommunityHandler) Create(c *gin.Context) {
	icon, err := h.readIcon(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	community, err := h.svc.CreateCommunity(c.Request.Context(), service.CreateCommunityInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Rules:       c.PostForm("rules"),
		Icon:        icon,
		CreatorID:   currentUserID(c),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Community created successfully",
		"id":      community.ID,
	})
}

func (h *CommunityHandler) readIcon(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("icon")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, service.NewInvalidInput("invalid icon upload")
	}
	if h.maxIconBytes > 0 && fh.Size > h.maxIconBytes {
		return nil, service.NewInvalidInput("icon is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (h *CommunityHandler) List(c *gin.Context) {
	list, err := h.svc.ListCommunities(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Detail 默认同时返回 members 和 posts
func (h *CommunityHandler) Detail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	withMembers, ok := queryBool(c, "include_members", true)
	if !ok {
		return
	}
	withPosts, ok := queryBool(c, "include_posts", true)
	if !ok {
		return
	}

	view, err := h.svc.GetCommunity(c.Request.Context(), id, withMembers, withPosts)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CommunityHandler) Join(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.JoinCommunity(c.Request.Context(), currentUserID(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have successfully joined the community"})
}

func (h *CommunityHandler) Membership(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	isMember, err := h.svc.IsMember(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_member": isMember})
}

func (h *CommunityHandler) MyCommunities(c *gin.Context) {
	list, err := h.svc.ListMyCommunities(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommunityHandler) Search(c *gin.Context) {
	list, err := h.svc.SearchCommunities(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.log.WithError(err).Error("search communities failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred during the search"})
		return
	}
	c.JSON(http.StatusOK, list)
}
