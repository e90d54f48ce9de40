package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/db"
	"golang.org/x/crypto/bcrypt"
)

type staffLoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StaffLogin 处理后台员工登录，成功后写入会话
func (a *API) StaffLogin(c *gin.Context) {
	var payload staffLoginPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	var user db.StaffUser
	if err := a.db.Where("username = ?", payload.Username).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	session := sessions.Default(c)
	session.Set("staff_id", user.ID)
	session.Set("staff_role", user.Role)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"username": user.Username,
		"role":     user.Role,
	})
}

// StaffLogout 处理后台员工登出
func (a *API) StaffLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"loggedOut": true})
}

// AuthRequired 是后台接口的会话认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		staffID := session.Get("staff_id")
		if staffID == nil {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}
