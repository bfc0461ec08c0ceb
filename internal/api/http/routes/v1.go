package routes

import "github.com/gin-gonic/gin"

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(rg *gin.RouterGroup)
}

type V1Deps struct {
	Auth     gin.HandlerFunc
	Geo      Registrar
	Profiles Registrar
	Charts   Registrar
	// Rectification is nil when no session store is configured.
	Rectification Registrar
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")
	if dep.Auth != nil {
		api.Use(dep.Auth)
	}

	dep.Geo.Register(api)
	dep.Profiles.Register(api.Group("/profiles"))
	dep.Charts.Register(api)
	if dep.Rectification != nil {
		dep.Rectification.Register(api)
	}
}
