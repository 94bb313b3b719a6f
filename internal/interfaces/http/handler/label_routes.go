package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erp/labelprint/internal/interfaces/http/router"
)

// LabelRoutes creates the route group for the label endpoints.
// printLimit guards POST /print and may be nil.
func LabelRoutes(handler *LabelHandler, system *SystemHandler, printLimit gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("labels", "/labels")

	group.GET("/formats", handler.ListFormats)
	group.POST("/preview", handler.Preview)
	group.POST("/document", handler.Document)
	if printLimit != nil {
		group.POST("/print", printLimit, handler.Print)
	} else {
		group.POST("/print", handler.Print)
	}
	group.GET("/health", system.Health)

	jobs := group.Group("jobs", "/jobs")
	jobs.GET("", handler.ListJobs)
	jobs.GET("/:id", handler.GetJob)
	jobs.GET("/:id/download", handler.DownloadJob)

	group.GET("/files/:year/:month/:filename", handler.ServeFile)

	return group
}
