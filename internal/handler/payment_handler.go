package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/service"
)

type paymentPayload struct {
	MemberID    uint   `json:"memberId"`
	AmountCents int64  `json:"amountCents"`
	Method      string `json:"method"`
	PaidAt      string `json:"paidAt"`
	Description string `json:"description"`
}

// RecordPayment 为会员记录一笔缴费
func (a *API) RecordPayment(c *gin.Context) {
	var payload paymentPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	var paidAt time.Time
	if payload.PaidAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.PaidAt)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的缴费时间")
			return
		}
		paidAt = parsed
	}

	payment, err := a.payments.Record(service.PaymentInput{
		MemberID:    payload.MemberID,
		AmountCents: payload.AmountCents,
		Method:      payload.Method,
		PaidAt:      paidAt,
		Description: payload.Description,
	})
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"payment": serializePayment(*payment)})
}

// ListPayments 返回缴费流水，支持按会员过滤
func (a *API) ListPayments(c *gin.Context) {
	filter := service.PaymentFilter{}

	if raw := c.Query("memberId"); raw != "" {
		memberID := parseIntQuery(c, "memberId", 0)
		if memberID <= 0 {
			respondError(c, http.StatusBadRequest, "无效的会员ID")
			return
		}
		filter.MemberID = uint(memberID)
	}

	payments, err := a.payments.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取缴费流水失败")
		return
	}

	items := make([]gin.H, 0, len(payments))
	for _, payment := range payments {
		items = append(items, serializePayment(payment))
	}

	respondSuccess(c, http.StatusOK, gin.H{"payments": items})
}

// MonthRevenue 返回当前自然月的营收汇总
func (a *API) MonthRevenue(c *gin.Context) {
	revenue, err := a.payments.MonthRevenue(time.Now(), a.loc)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取营收汇总失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"year":       revenue.Year,
		"month":      int(revenue.Month),
		"totalCents": revenue.TotalCents,
		"count":      revenue.Count,
	})
}

func serializePayment(payment db.Payment) gin.H {
	return gin.H{
		"id":          payment.ID,
		"memberId":    payment.MemberID,
		"amountCents": payment.AmountCents,
		"method":      payment.Method,
		"reference":   payment.Reference,
		"paidAt":      payment.PaidAt.Format(time.RFC3339),
		"description": payment.Description,
	}
}

func handlePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		respondError(c, http.StatusNotFound, "会员不存在")
	case errors.Is(err, service.ErrPaymentInvalidInput):
		respondError(c, http.StatusBadRequest, "缴费金额或方式无效")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
