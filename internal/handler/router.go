package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/middleware"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/service"
)

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Cases     *CaseHandler
	Exhibits  *ExhibitHandler
	Custody   *CustodyHandler
	Approvals *ApprovalHandler
	Activity  *ActivityHandler
	Documents *DocumentHandler
	Blobs     *BlobHandler
	Metrics   *MetricsHandler
}

// Register mounts the API routes on r under prefix.
func Register(r gin.IRouter, prefix string, h Handlers, tokens middleware.TokenValidator, metrics *service.MetricsService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta(), middleware.Metrics(metrics))

	if h.Blobs != nil {
		api.GET("/blobs/:token", h.Blobs.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	cases := secured.Group("/cases")
	cases.POST("", middleware.RequireRoles(models.RoleAdministrator, models.RoleExhibitOfficer), h.Cases.Create)
	cases.GET("", h.Cases.List)
	cases.GET("/:id", h.Cases.Get)
	cases.POST("/:id/exhibits", middleware.RequireRoles(models.RoleAdministrator, models.RoleExhibitOfficer), h.Cases.AddExhibit)
	cases.PATCH("/:id/assignments", h.Cases.Assign)
	cases.PATCH("/:id/analyst-status", middleware.RequireRoles(models.RoleAnalyst), h.Cases.UpdateAnalystStatus)
	cases.PATCH("/:id/priority", h.Cases.UpdatePriority)
	cases.PUT("/:id/notes", h.Cases.UpdateNotes)
	cases.PUT("/:id/status", middleware.RequireRoles(models.RoleAdministrator), h.Cases.OverrideStatus)
	cases.POST("/:id/approvals", h.Approvals.Submit)
	cases.GET("/:id/approvals", h.Approvals.List)
	cases.GET("/:id/activity", h.Activity.ListForCase)
	cases.POST("/:id/documents", h.Documents.Upload)
	cases.GET("/:id/documents", h.Documents.List)
	cases.GET("/:id/documents/preview", h.Documents.Preview)

	exhibits := secured.Group("/exhibits")
	exhibits.GET("/:id", h.Exhibits.Get)
	exhibits.POST("/:id/assign", h.Exhibits.Assign)
	exhibits.POST("/:id/status", h.Exhibits.ChangeStatus)
	exhibits.POST("/:id/transfer", h.Exhibits.Transfer)
	exhibits.POST("/:id/return", h.Exhibits.Return)
	exhibits.GET("/:id/custody", h.Custody.History)
	exhibits.GET("/:id/custody/verify", h.Custody.Verify)
	exhibits.GET("/:id/custody/export", h.Custody.Export)
	exhibits.POST("/:id/custody/publish", h.Custody.Publish)

	approvals := secured.Group("/approvals")
	approvals.GET("", h.Approvals.List)
	approvals.GET("/:id", h.Approvals.Get)
	approvals.POST("/:id/resolve", h.Approvals.Resolve)

	secured.GET("/activity", h.Activity.List)
	secured.GET("/system/metrics", middleware.RequireRoles(models.RoleAdministrator, models.RoleCommandingOfficer), h.Metrics.Snapshot)
}
