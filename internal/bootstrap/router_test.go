package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/natalis-app/natalis-backend/internal/api/http/routes"
	"github.com/natalis-app/natalis-backend/internal/auth"
)

type pathRegistrar string

func (p pathRegistrar) Register(rg *gin.RouterGroup) {
	rg.GET("/"+string(p), func(c *gin.Context) {
		c.String(http.StatusOK, auth.UserFirebaseUID(c))
	})
}

func testRouter(origins []string, rect routes.Registrar) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return BuildRouter(RouterDeps{
		ServiceName:    "natalis",
		Version:        "test",
		AllowedOrigins: origins,
		V1: routes.V1Deps{
			Auth:          auth.OptionalUser(),
			Geo:           pathRegistrar("geo"),
			Profiles:      pathRegistrar("mine"),
			Charts:        pathRegistrar("chart"),
			Rectification: rect,
		},
	})
}

func TestBuildRouter_Routes(t *testing.T) {
	r := testRouter([]string{"*"}, nil)

	for path, code := range map[string]int{
		"/healthz":              http.StatusOK,
		"/api/v1/geo":           http.StatusOK,
		"/api/v1/profiles/mine": http.StatusOK,
		"/api/v1/chart":         http.StatusOK,
		"/api/v1/rectification": http.StatusNotFound,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"), path)
	}

	r = testRouter([]string{"*"}, pathRegistrar("rectification"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rectification", nil)
	req.Header.Set("X-User-Id", "u9")
	r.ServeHTTP(w, req)
	assert.Equal(t, "u9", w.Body.String())
}

func TestBuildRouter_CORS(t *testing.T) {
	r := testRouter([]string{"https://app.example"}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/geo", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/geo", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
