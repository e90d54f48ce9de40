package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// validate 校验经 bindJSON 绑定后的业务负载，补充 binding 标签覆盖不到的规则。
var validate = validator.New()

// respondSuccess 统一成功响应包装：{"isSuccess": true, "data": ...}
func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"isSuccess": true, "data": data})
}

// respondError 统一失败响应包装：{"isSuccess": false, "message": ...}
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"isSuccess": false, "message": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
