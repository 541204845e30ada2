package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/server/apierr"
	"github.com/rs/zerolog"
)

// Auth accepts a session token from the Authorization header or the
// session cookie and puts the principal into the request context.
func Auth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			tokenStr, _ = c.Cookie(constants.TokenCookieName)
		}
		if tokenStr == "" {
			apierr.WriteApiErrJSON(c, http.StatusUnauthorized, apierr.Unauthorized)
			return
		}

		p, err := tokens.Parse(tokenStr)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected session token")
			apierr.WriteApiErrJSON(c, http.StatusUnauthorized, apierr.Unauthorized)
			return
		}

		ctx := auth.WithPrincipal(c.Request.Context(), p)
		logger := zerolog.Ctx(ctx).With().Str("member_id", p.MemberID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
