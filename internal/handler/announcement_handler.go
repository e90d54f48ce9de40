package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/service"
)

type announcementPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ListAnnouncements 返回全部公告（含草稿）
func (a *API) ListAnnouncements(c *gin.Context) {
	items, err := a.announcements.List(false)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取公告列表失败")
		return
	}

	payload := make([]gin.H, 0, len(items))
	for _, item := range items {
		payload = append(payload, serializeAnnouncement(item, false))
	}

	respondSuccess(c, http.StatusOK, gin.H{"announcements": payload})
}

// GetAnnouncement 返回单条公告及渲染后的 HTML
func (a *API) GetAnnouncement(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的公告ID")
		return
	}

	item, err := a.announcements.Get(id)
	if err != nil {
		handleAnnouncementError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"announcement": serializeAnnouncement(*item, true)})
}

// CreateAnnouncement 创建公告草稿
func (a *API) CreateAnnouncement(c *gin.Context) {
	var payload announcementPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.announcements.Create(service.AnnouncementInput{
		Title: payload.Title,
		Body:  payload.Body,
	})
	if err != nil {
		handleAnnouncementError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"announcement": serializeAnnouncement(*item, false)})
}

// UpdateAnnouncement 更新公告
func (a *API) UpdateAnnouncement(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的公告ID")
		return
	}

	var payload announcementPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.announcements.Update(id, service.AnnouncementInput{
		Title: payload.Title,
		Body:  payload.Body,
	})
	if err != nil {
		handleAnnouncementError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"announcement": serializeAnnouncement(*item, false)})
}

// PublishAnnouncement 发布公告
func (a *API) PublishAnnouncement(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的公告ID")
		return
	}

	item, err := a.announcements.Publish(id, time.Now())
	if err != nil {
		handleAnnouncementError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"announcement": serializeAnnouncement(*item, false)})
}

// DeleteAnnouncement 删除公告
func (a *API) DeleteAnnouncement(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的公告ID")
		return
	}

	if err := a.announcements.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除公告失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

func serializeAnnouncement(item db.Announcement, withHTML bool) gin.H {
	payload := gin.H{
		"id":    item.ID,
		"title": item.Title,
		"body":  item.Body,
	}
	if item.PublishedAt != nil {
		payload["publishedAt"] = item.PublishedAt.Format(time.RFC3339)
	}
	if withHTML {
		if rendered, err := service.RenderHTML(item.Body); err == nil {
			payload["html"] = rendered
		}
	}
	return payload
}

func handleAnnouncementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnnouncementNotFound):
		respondError(c, http.StatusNotFound, "公告不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
