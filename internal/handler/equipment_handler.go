package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/service"
)

type equipmentPayload struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	Status         string `json:"status"`
	PurchasedAt    string `json:"purchasedAt"`
	LastServicedAt string `json:"lastServicedAt"`
	Notes          string `json:"notes"`
}

// ListEquipment 返回器械列表
func (a *API) ListEquipment(c *gin.Context) {
	filter := service.EquipmentFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	items, err := a.equipment.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取器械列表失败")
		return
	}

	payload := make([]gin.H, 0, len(items))
	for _, item := range items {
		payload = append(payload, serializeEquipment(item))
	}

	respondSuccess(c, http.StatusOK, gin.H{"equipment": payload})
}

// GetEquipment 返回单个器械详情
func (a *API) GetEquipment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的器械ID")
		return
	}

	item, err := a.equipment.Get(id)
	if err != nil {
		handleEquipmentError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"equipment": serializeEquipment(*item)})
}

// CreateEquipment 创建器械
func (a *API) CreateEquipment(c *gin.Context) {
	input, ok := parseEquipmentInput(c)
	if !ok {
		return
	}

	item, err := a.equipment.Create(input)
	if err != nil {
		handleEquipmentError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"equipment": serializeEquipment(*item)})
}

// UpdateEquipment 更新器械
func (a *API) UpdateEquipment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的器械ID")
		return
	}

	input, ok := parseEquipmentInput(c)
	if !ok {
		return
	}

	item, err := a.equipment.Update(id, input)
	if err != nil {
		handleEquipmentError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"equipment": serializeEquipment(*item)})
}

// ServiceEquipment 登记一次器械保养
func (a *API) ServiceEquipment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的器械ID")
		return
	}

	item, err := a.equipment.MarkServiced(id, time.Now())
	if err != nil {
		handleEquipmentError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"equipment": serializeEquipment(*item)})
}

// DeleteEquipment 删除器械
func (a *API) DeleteEquipment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的器械ID")
		return
	}

	if err := a.equipment.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除器械失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

func parseEquipmentInput(c *gin.Context) (service.EquipmentInput, bool) {
	var payload equipmentPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.EquipmentInput{}, false
	}

	purchasedAt, ok := parseOptionalDate(payload.PurchasedAt)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的采购日期")
		return service.EquipmentInput{}, false
	}
	servicedAt, ok := parseOptionalDate(payload.LastServicedAt)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的保养日期")
		return service.EquipmentInput{}, false
	}

	return service.EquipmentInput{
		Name:           payload.Name,
		Category:       payload.Category,
		Status:         payload.Status,
		PurchasedAt:    purchasedAt,
		LastServicedAt: servicedAt,
		Notes:          payload.Notes,
	}, true
}

func parseOptionalDate(value string) (*time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}

	t, err := time.Parse(dateFormat, value)
	if err != nil {
		return nil, false
	}

	return &t, true
}

func serializeEquipment(item db.Equipment) gin.H {
	payload := gin.H{
		"id":       item.ID,
		"name":     item.Name,
		"category": item.Category,
		"status":   item.Status,
		"notes":    item.Notes,
	}
	if item.PurchasedAt != nil {
		payload["purchasedAt"] = item.PurchasedAt.Format(dateFormat)
	}
	if item.LastServicedAt != nil {
		payload["lastServicedAt"] = item.LastServicedAt.Format(dateFormat)
	}
	return payload
}

func handleEquipmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEquipmentNotFound):
		respondError(c, http.StatusNotFound, "器械不存在")
	case errors.Is(err, service.ErrEquipmentInvalidStatus):
		respondError(c, http.StatusBadRequest, "器械状态无效")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
