package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/service"
)

type memberPayload struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
	Notes    string `json:"notes"`
}

// ListMembers 返回会员列表
func (a *API) ListMembers(c *gin.Context) {
	filter := service.MemberFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	members, err := a.members.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取会员列表失败")
		return
	}

	items := make([]gin.H, 0, len(members))
	for _, member := range members {
		items = append(items, serializeMember(member))
	}

	respondSuccess(c, http.StatusOK, gin.H{"members": items})
}

// GetMember 返回单个会员详情
func (a *API) GetMember(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	member, err := a.members.Get(id)
	if err != nil {
		handleMemberError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"member": serializeMember(*member)})
}

// CreateMember 创建会员
func (a *API) CreateMember(c *gin.Context) {
	payload, ok := parseMemberPayload(c)
	if !ok {
		return
	}

	member, err := a.members.Create(service.MemberInput{
		FullName: payload.FullName,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Status:   payload.Status,
		Notes:    payload.Notes,
	})
	if err != nil {
		handleMemberError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"member": serializeMember(*member)})
}

// UpdateMember 更新会员资料
func (a *API) UpdateMember(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	payload, ok := parseMemberPayload(c)
	if !ok {
		return
	}

	member, err := a.members.Update(id, service.MemberInput{
		FullName: payload.FullName,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Status:   payload.Status,
		Notes:    payload.Notes,
	})
	if err != nil {
		handleMemberError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"member": serializeMember(*member)})
}

// DeleteMember 删除会员
func (a *API) DeleteMember(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	if err := a.members.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除会员失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

func parseMemberPayload(c *gin.Context) (memberPayload, bool) {
	var payload memberPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return memberPayload{}, false
	}

	if err := validate.Struct(payload); err != nil {
		respondError(c, http.StatusBadRequest, "会员资料不完整或格式有误")
		return memberPayload{}, false
	}

	return payload, true
}

func serializeMember(member db.Member) gin.H {
	item := gin.H{
		"id":           member.ID,
		"fullName":     member.FullName,
		"email":        member.Email,
		"phone":        member.Phone,
		"memberNumber": member.MemberNumber,
		"status":       member.Status,
		"notes":        member.Notes,
	}
	if !member.JoinedAt.IsZero() {
		item["joinedAt"] = member.JoinedAt.Format(time.RFC3339)
	}
	return item
}

func handleMemberError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		respondError(c, http.StatusNotFound, "会员不存在")
	case errors.Is(err, service.ErrMemberEmailTaken):
		respondError(c, http.StatusBadRequest, "邮箱已被占用")
	case errors.Is(err, service.ErrMemberInvalidInput):
		respondError(c, http.StatusBadRequest, "会员资料不完整或格式有误")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
