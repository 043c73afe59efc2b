package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/service"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/middleware/requestid"
)

type tokenStub struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (s *tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	s.token = token
	return s.claims, s.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/resource/:id", handlers...)
	return r
}

func serve(r *gin.Engine, target, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTStoresPrincipal(t *testing.T) {
	tokens := &tokenStub{claims: &models.JWTClaims{UserID: "sv-1", Role: models.RoleSupervisor, Name: "Insp. Kimaro", BadgeNumber: "S-001"}}
	var got models.Principal
	r := newRouter(JWT(tokens), func(c *gin.Context) {
		got = Principal(c)
		c.Status(http.StatusNoContent)
	})

	w := serve(r, "/resource/1", "bearer  abc.def ")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "abc.def", tokens.token)
	assert.Equal(t, models.Principal{ID: "sv-1", Role: models.RoleSupervisor, Name: "Insp. Kimaro", BadgeNumber: "S-001"}, got)
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	tokens := &tokenStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}
	r := newRouter(JWT(tokens), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, header := range []string{"", "Basic dXNlcg==", "Bearer expired"} {
		w := serve(r, "/resource/1", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED", header)
	}
}

func TestRequireRoles(t *testing.T) {
	withClaims := func(claims *models.JWTClaims) gin.HandlerFunc {
		return func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
			c.Next()
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	admin := &models.JWTClaims{UserID: "ad-1", Role: models.RoleAdministrator}
	analyst := &models.JWTClaims{UserID: "an-1", Role: models.RoleAnalyst}

	w := serve(newRouter(withClaims(admin), RequireRoles(models.RoleAdministrator), ok), "/resource/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(newRouter(withClaims(analyst), RequireRoles(models.RoleAdministrator), ok), "/resource/1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "role analyst may not access this resource")

	w = serve(newRouter(withClaims(nil), RequireRoles(models.RoleAdministrator), ok), "/resource/1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResponseMetaCarriesRequestAndScope(t *testing.T) {
	var meta map[string]interface{}
	r := newRouter(requestid.Middleware(), WithResponseMeta(), func(c *gin.Context) {
		SetMeta(c, MetaScope, ScopeAssigned)
		meta = ResponseMeta(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resource/1", nil)
	req.Header.Set(requestid.HeaderKey, "req-42")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, ScopeAssigned, meta[MetaScope])
	assert.Equal(t, "req-42", meta["request_id"])
	assert.Contains(t, meta, "processing_time_ms")

	assert.Nil(t, ResponseMeta(&gin.Context{}))
}

func TestMetricsUsesRouteTemplates(t *testing.T) {
	metrics := service.NewMetricsService()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/blobs/:token", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "/blobs/secret-token", "")
	serve(r, "/nowhere", "")

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `path="/blobs/:token"`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, "secret-token")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"requests_total":2`)
}
