package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gymlog/internal/service"
)

const (
	portalTokenTTL      = 24 * time.Hour
	portalMemberContext = "__portal_member_id"
)

type portalClaims struct {
	MemberID     uint   `json:"member_id"`
	MemberNumber string `json:"member_number"`
	jwt.RegisteredClaims
}

type portalLoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PortalLogin 处理会员端登录，签发 HS256 Bearer Token
func (a *API) PortalLogin(c *gin.Context) {
	var payload portalLoginPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	member, err := a.members.Authenticate(payload.Email, payload.Password)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	now := time.Now()
	claims := portalClaims{
		MemberID:     member.ID,
		MemberNumber: member.MemberNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.MemberNumber,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(portalTokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "签发令牌失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"token":  token,
		"member": serializeMember(*member),
	})
}

// PortalAuthRequired 校验 Bearer Token 并把会员 ID 写入上下文
func (a *API) PortalAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "缺少有效的认证令牌")
			c.Abort()
			return
		}

		claims := &portalClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			return a.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid || claims.MemberID == 0 {
			respondError(c, http.StatusUnauthorized, "认证令牌无效或已过期")
			c.Abort()
			return
		}

		c.Set(portalMemberContext, claims.MemberID)
		c.Next()
	}
}

// PortalProfile 返回当前登录会员的档案
func (a *API) PortalProfile(c *gin.Context) {
	memberID := portalMemberID(c)

	member, err := a.members.Get(memberID)
	if err != nil {
		handleMemberError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"member": serializeMember(*member)})
}

// PortalAttendanceHistory 返回当前登录会员的入场历史
func (a *API) PortalAttendanceHistory(c *gin.Context) {
	memberID := portalMemberID(c)
	limit := parseIntQuery(c, "limit", 30)

	records, err := a.attendance.MemberHistory(memberID, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取入场历史失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"records": a.serializeAttendanceRecords(records)})
}

// PortalAnnouncements 返回已发布的公告（含渲染后的 HTML）
func (a *API) PortalAnnouncements(c *gin.Context) {
	items, err := a.announcements.List(true)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取公告失败")
		return
	}

	payload := make([]gin.H, 0, len(items))
	for _, item := range items {
		entry := serializeAnnouncement(item, false)
		if rendered, err := service.RenderHTML(item.Body); err == nil {
			entry["html"] = rendered
		}
		payload = append(payload, entry)
	}

	respondSuccess(c, http.StatusOK, gin.H{"announcements": payload})
}

func portalMemberID(c *gin.Context) uint {
	if value, exists := c.Get(portalMemberContext); exists {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
