package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/skillsync-app/auth-service/internal/adapters/transport/http/dto"
	"github.com/skillsync-app/auth-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/skillsync-app/auth-service/internal/app/auth/service"
	authErrors "github.com/skillsync-app/auth-service/internal/domain/auth/errors"
	"github.com/skillsync-app/auth-service/internal/domain/auth/model"
	"github.com/skillsync-app/auth-service/internal/infra/config"
)

type Handler struct {
	svc      appsvc.Service
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	redisCli *redis.Client
}

func NewHandler(svc appsvc.Service, cfg *config.Config, log *zap.Logger, db *gorm.DB, redisCli *redis.Client) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log, db: db, redisCli: redisCli}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
	r.POST("/refresh", h.refresh)

	r.POST("/password/forgot", h.requestPasswordReset)
	r.POST("/password/verify-otp", h.verifyOTP)
	r.POST("/password/reset", h.resetPassword)

	r.GET("/me", middleware.RequireAuth(), h.me)

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// issueTokens writes the pair as the two session cookies. One policy for
// both cookies and every code path: http-only, secure, SameSite=Lax.
func (h *Handler) issueTokens(c *gin.Context, pair model.TokenPair, code int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.AccessCookie,
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true, // secure
		true, // httpOnly
	)
	c.SetCookie(
		middleware.RefreshCookie,
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true,
		true,
	)

	c.JSON(code, gin.H{
		"expiresIn": int(pair.AccessTTL.Seconds()),
		"userId":    pair.UserID.String(),
	})
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair, http.StatusCreated)
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair, http.StatusOK)
}

// logout reads the refresh token from the cookie, falling back to the JSON
// body for clients that still send it there. Both cookies are cleared
// either way; a bad token never fails a logout.
func (h *Handler) logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshCookie)
	if token == "" {
		var body dto.LogoutDTO
		if err := c.ShouldBindJSON(&body); err == nil {
			token = body.RefreshToken
		}
	}

	if err := h.svc.Logout(c.Request.Context(), dto.LogoutDTO{RefreshToken: token}); err != nil {
		h.handleError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", h.cfg.CookieDomain, true, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", h.cfg.CookieDomain, true, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// refresh is the explicit renewal endpoint: cookie-sourced refresh token,
// new access cookie only, refresh cookie untouched.
func (h *Handler) refresh(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshCookie)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
		return
	}

	grant, err := h.svc.Refresh(c.Request.Context(), dto.RefreshDTO{RefreshToken: token})
	if err != nil {
		if authErrors.IsTokenRevoked(err) {
			middleware.RevokedRejections.Inc()
		}
		h.handleError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.AccessCookie,
		grant.Token,
		int(grant.TTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true,
		true,
	)
	c.JSON(http.StatusOK, gin.H{"expiresIn": int(grant.TTL.Seconds())})
}

func (h *Handler) requestPasswordReset(c *gin.Context) {
	var body dto.RequestPasswordResetDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your email"})
}

func (h *Handler) verifyOTP(c *gin.Context) {
	var body dto.VerifyOTPDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.VerifyResetOTP(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified successfully"})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var body dto.ResetPasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset successful"})
}

func (h *Handler) me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"id":                user.ID.String(),
		"email":             user.Email,
		"username":          user.Username,
		"full_name":         user.FullName,
		"bio":               user.Bio,
		"profile_photo_url": user.ProfilePhotoURL,
	})
}

func (h *Handler) health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.WithContext(c.Request.Context()).Exec("SELECT 1").Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "component": "postgres"})
			return
		}
	}
	if h.redisCli != nil {
		if _, err := h.redisCli.Ping(c.Request.Context()).Result(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "component": "redis"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case authErrors.IsInvalidToken(err):
		// one message for the whole token class: the client never learns
		// which check refused it
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case authErrors.IsInvalidOTP(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired OTP"})
	case authErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case authErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case authErrors.IsRateExceeded(err):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		h.log.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
