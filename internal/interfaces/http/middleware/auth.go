// Package middleware holds the gin middleware chain: bearer-token
// authentication, request logging, CORS, panic recovery and rate limiting.
package middleware

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ipfolio/ipfolio/internal/config"
	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/prometheus"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// principalKey is the gin context key the resolved principal is stored under.
const principalKey = "auth.principal"

// Claims is the token payload the identity provider issues. The role and
// permission flags are authoritative; nothing below the boundary re-reads
// the token.
type Claims struct {
	jwt.RegisteredClaims

	Role     string `json:"role"`
	ClientID *int64 `json:"client_id,omitempty"`
	CanRead  bool   `json:"can_read"`
	CanWrite bool   `json:"can_write"`
}

// AuthMiddleware resolves the caller principal from a bearer token.
type AuthMiddleware struct {
	cfg     config.AuthConfig
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewAuthMiddleware builds the token middleware. metrics may be nil.
func NewAuthMiddleware(cfg config.AuthConfig, logger logging.Logger, metrics *prometheus.AppMetrics) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg, logger: logger.Named("auth"), metrics: metrics}
}

// Handler validates the Authorization header and stores the principal in the
// request context. With RequireToken disabled, tokenless requests proceed as
// an admin principal; that mode is for local development only.
func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearerToken(c)
		if raw == "" {
			if !m.cfg.RequireToken {
				setPrincipal(c, user.Principal{UserID: "dev", Role: user.RoleAdmin}.Normalize())
				c.Next()
				return
			}
			abortUnauthorized(c, errors.New(errors.ErrCodeUnauthorized, "missing bearer token"))
			return
		}

		principal, err := m.resolve(raw)
		if err != nil {
			prometheus.RecordTokenRejected(m.metrics, rejectionReason(err.Code))
			m.logger.Warn("token rejected", logging.String("path", c.FullPath()), logging.Err(err))
			abortUnauthorized(c, err)
			return
		}

		setPrincipal(c, principal)
		c.Next()
	}
}

func (m *AuthMiddleware) resolve(raw string) (user.Principal, *errors.AppError) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.cfg.ClockSkew),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}
	if m.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.cfg.Audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(m.cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		code := errors.ErrCodeTokenInvalid
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			code = errors.ErrCodeTokenExpired
		}
		return user.Principal{}, errors.Wrap(err, code, "token validation failed")
	}
	if !token.Valid {
		return user.Principal{}, errors.New(errors.ErrCodeTokenInvalid, "token validation failed")
	}

	role := user.Role(claims.Role)
	if !role.Valid() {
		return user.Principal{}, errors.New(errors.ErrCodePrincipalInvalid, "unknown role in token")
	}
	if role == user.RoleClient && claims.ClientID == nil {
		return user.Principal{}, errors.New(errors.ErrCodePrincipalInvalid, "client token without client id")
	}

	return user.Principal{
		UserID:   claims.Subject,
		Role:     role,
		ClientID: claims.ClientID,
		CanRead:  claims.CanRead,
		CanWrite: claims.CanWrite,
	}.Normalize(), nil
}

// rejectionReason folds token failure codes into the metric's label set.
func rejectionReason(code errors.ErrorCode) string {
	switch code {
	case errors.ErrCodeTokenExpired:
		return "expired"
	case errors.ErrCodePrincipalInvalid:
		return "principal"
	default:
		return "invalid"
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func setPrincipal(c *gin.Context, p user.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal resolved by the auth middleware.
func PrincipalFrom(c *gin.Context) (user.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return user.Principal{}, false
	}
	p, ok := v.(user.Principal)
	return p, ok
}

func abortUnauthorized(c *gin.Context, err *errors.AppError) {
	c.Header("WWW-Authenticate", `Bearer realm="ipfolio"`)
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(err.Code), gin.H{
		"error": gin.H{"code": err.Code.String(), "message": err.Message},
	})
}

// IssueToken signs a token for the given principal. Used by the CLI and in
// tests; production tokens come from the identity provider.
func IssueToken(cfg config.AuthConfig, p user.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:     string(p.Role),
		ClientID: p.ClientID,
		CanRead:  p.CanRead,
		CanWrite: p.CanWrite,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "signing token")
	}
	return signed, nil
}
