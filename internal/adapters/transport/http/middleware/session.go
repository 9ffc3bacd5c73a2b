package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillsync-app/auth-service/internal/adapters/transport/http/dto"
	appsvc "github.com/skillsync-app/auth-service/internal/app/auth/service"
	"github.com/skillsync-app/auth-service/internal/domain/auth/model"
	"github.com/skillsync-app/auth-service/internal/infra/config"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	userContextKey = "session_user"
)

// Session resolves the request's cookies to a user before any handler
// runs. When validation had to mint a fresh access token, the renewed
// cookie is attached to the outgoing response right here; handlers never
// see the difference. Token problems of any kind leave the request
// anonymous, they are never surfaced to the client.
func Session(svc appsvc.Service, cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, _ := c.Cookie(AccessCookie)
		refresh, _ := c.Cookie(RefreshCookie)

		sess, err := svc.Authenticate(c.Request.Context(), dto.AuthenticateDTO{
			AccessToken:  access,
			RefreshToken: refresh,
		})
		if err != nil {
			log.Error("session validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if sess.RenewedAccess != nil {
			// the refresh cookie is left untouched: only access is renewed
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(
				AccessCookie,
				sess.RenewedAccess.Token,
				int(sess.RenewedAccess.TTL.Seconds()),
				"/",
				cfg.CookieDomain,
				true, // secure
				true, // httpOnly
			)
			SilentRenewals.Inc()
			log.Debug("access token silently renewed",
				zap.String("user_id", sess.User.ID.String()))
		}

		if sess.User != nil {
			c.Set(userContextKey, *sess.User)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user placed by Session, if any.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return model.User{}, false
	}
	u, ok := v.(model.User)
	return u, ok
}

// RequireAuth aborts anonymous requests with 401. Must run after Session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}
