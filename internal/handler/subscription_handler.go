package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/service"
)

type planPayload struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PriceCents     int64  `json:"priceCents"`
	DurationMonths int    `json:"durationMonths"`
}

type subscribePayload struct {
	PlanID   uint   `json:"planId"`
	StartsAt string `json:"startsAt"`
}

// ListPlans 返回全部套餐
func (a *API) ListPlans(c *gin.Context) {
	plans, err := a.subscriptions.ListPlans()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取套餐列表失败")
		return
	}

	items := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		items = append(items, serializePlan(plan))
	}

	respondSuccess(c, http.StatusOK, gin.H{"plans": items})
}

// CreatePlan 创建套餐
func (a *API) CreatePlan(c *gin.Context) {
	var payload planPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	plan, err := a.subscriptions.CreatePlan(service.PlanInput{
		Name:           payload.Name,
		Description:    payload.Description,
		PriceCents:     payload.PriceCents,
		DurationMonths: payload.DurationMonths,
	})
	if err != nil {
		handleSubscriptionError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"plan": serializePlan(*plan)})
}

// UpdatePlan 更新套餐
func (a *API) UpdatePlan(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的套餐ID")
		return
	}

	var payload planPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	plan, err := a.subscriptions.UpdatePlan(id, service.PlanInput{
		Name:           payload.Name,
		Description:    payload.Description,
		PriceCents:     payload.PriceCents,
		DurationMonths: payload.DurationMonths,
	})
	if err != nil {
		handleSubscriptionError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"plan": serializePlan(*plan)})
}

// DeletePlan 删除套餐
func (a *API) DeletePlan(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的套餐ID")
		return
	}

	if err := a.subscriptions.DeletePlan(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除套餐失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

// SubscribeMember 为会员开通套餐订阅
func (a *API) SubscribeMember(c *gin.Context) {
	memberID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	var payload subscribePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	var startsAt time.Time
	if payload.StartsAt != "" {
		parsed, err := time.Parse(dateFormat, payload.StartsAt)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的开通日期")
			return
		}
		startsAt = parsed
	}

	subscription, err := a.subscriptions.Subscribe(memberID, payload.PlanID, startsAt)
	if err != nil {
		handleSubscriptionError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"subscription": serializeSubscription(*subscription)})
}

// MemberSubscription 返回会员当前生效的订阅
func (a *API) MemberSubscription(c *gin.Context) {
	memberID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	subscription, err := a.subscriptions.ActiveSubscription(memberID)
	if err != nil {
		handleSubscriptionError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"subscription": serializeSubscription(*subscription)})
}

// ExpireSubscriptions 批量停用到期订阅（显式维护动作）
func (a *API) ExpireSubscriptions(c *gin.Context) {
	expired, err := a.subscriptions.ExpireDue(time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "停用到期订阅失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"expired": expired})
}

func serializePlan(plan db.SubscriptionPlan) gin.H {
	return gin.H{
		"id":             plan.ID,
		"name":           plan.Name,
		"description":    plan.Description,
		"priceCents":     plan.PriceCents,
		"durationMonths": plan.DurationMonths,
	}
}

func serializeSubscription(subscription db.MemberSubscription) gin.H {
	item := gin.H{
		"id":        subscription.ID,
		"memberId":  subscription.MemberID,
		"planId":    subscription.PlanID,
		"startsAt":  subscription.StartsAt.Format(dateFormat),
		"expiresAt": subscription.ExpiresAt.Format(dateFormat),
		"active":    subscription.Active,
	}
	if subscription.Plan.ID != 0 {
		item["plan"] = serializePlan(subscription.Plan)
	}
	return item
}

func handleSubscriptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		respondError(c, http.StatusNotFound, "会员不存在")
	case errors.Is(err, service.ErrPlanNotFound):
		respondError(c, http.StatusNotFound, "套餐不存在")
	case errors.Is(err, service.ErrPlanInvalidInput):
		respondError(c, http.StatusBadRequest, "套餐配置无效")
	case errors.Is(err, service.ErrSubscriptionNotFound):
		respondError(c, http.StatusNotFound, "会员没有生效的订阅")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
