// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"aurum/internal/domain/auth"
	"aurum/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByCode(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// DocumentRouteHandler defines the interface for document handlers.
// All document handlers must implement these methods.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// Reads are open to any authenticated user; writes need the manager
// role (admins always pass).
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	manage := middleware.RequireRole(auth.RoleManager)

	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.GET("/by-code/:code", handler.GetByCode)
	group.POST("", manage, handler.Create)
	group.PUT("/:id", manage, handler.Update)
	group.DELETE("/:id", manage, handler.Delete)
	group.POST("/:id/deletion-mark", manage, handler.SetDeletionMark)
}

// RegisterDocumentRoutes registers standard CRUD + lifecycle routes for
// a document. Sales staff can draft and confirm documents; deleting and
// cancelling confirmed documents needs the manager role.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	draft := middleware.RequireRole(auth.RoleManager, auth.RoleSales)
	manage := middleware.RequireRole(auth.RoleManager)

	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("", draft, handler.Create)
	group.PUT("/:id", draft, handler.Update)
	group.DELETE("/:id", manage, handler.Delete)
	group.POST("/:id/confirm", draft, handler.Confirm)
	group.POST("/:id/cancel", manage, handler.Cancel)
}
