package auth

import (
	"net/http"
	"strings"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// Headers set by the trusted gateway in front of the service.
const (
	HeaderUserID     = "x-user-id"
	HeaderUserName   = "x-user-name"
	HeaderUserRole   = "x-user-role"
	HeaderSchoolID   = "x-school-id"
	HeaderSchoolName = "x-school-name"
	HeaderSubjects   = "x-user-subjects"
	HeaderGrades     = "x-user-grades"
)

const contextKey = "auth"

// publicPaths are served to infrastructure probes without a token.
var publicPaths = map[string]bool{"/health": true, "/metrics": true}

// TokenVerifier turns a bearer token into a caller identity.
type TokenVerifier interface {
	Verify(token string) (*models.AuthContext, error)
}

// Middleware attaches an AuthContext to every request. With a verifier
// configured every request must carry a valid bearer token and the identity
// headers are ignored. Without one the gateway headers are trusted as-is.
// Role checks happen later in the access policy.
func Middleware(verifier TokenVerifier, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := FromHeaders(c.Request.Header)

		if verifier != nil && publicPaths[c.Request.URL.Path] {
			auth = &models.AuthContext{}
		} else if verifier != nil {
			token := bearerToken(c)
			if token == "" {
				logger.Warn("Missing bearer token", "path", c.Request.URL.Path, "remote_addr", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
				return
			}
			verified, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("Rejected bearer token",
					"path", c.Request.URL.Path,
					"remote_addr", c.ClientIP(),
					"error", err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				return
			}
			auth = verified
		}

		c.Set(contextKey, auth)
		if auth.UserID != "" {
			c.Set("user_id", auth.UserID)
		}
		c.Next()
	}
}

// FromHeaders builds an AuthContext from the gateway headers.
func FromHeaders(h http.Header) *models.AuthContext {
	return &models.AuthContext{
		UserID:           strings.TrimSpace(h.Get(HeaderUserID)),
		UserName:         strings.TrimSpace(h.Get(HeaderUserName)),
		Role:             models.ParseRole(h.Get(HeaderUserRole)),
		SchoolID:         strings.TrimSpace(h.Get(HeaderSchoolID)),
		SchoolName:       strings.TrimSpace(h.Get(HeaderSchoolName)),
		AssignedSubjects: models.SplitList(h.Get(HeaderSubjects)),
		AssignedGrades:   models.SplitList(h.Get(HeaderGrades)),
	}
}

// FromContext returns the caller identity of the request. Requests that
// skipped the middleware get an empty identity, which every policy denies.
func FromContext(c *gin.Context) *models.AuthContext {
	if value, ok := c.Get(contextKey); ok {
		if auth, ok := value.(*models.AuthContext); ok && auth != nil {
			return auth
		}
	}
	return &models.AuthContext{}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
