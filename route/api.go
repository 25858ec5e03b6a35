package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imagegallery/controller"
)

func Images(router *gin.Engine, ic *controller.ImageController) {
	images := router.Group("/api/images")

	images.POST("/upload", ic.Upload)
	images.GET("/search", ic.Search)
	images.GET("/tags", ic.Tags)
	images.GET("/download", ic.Download)
	images.GET("/:id", ic.GetImage)
}

func System(router *gin.Engine, gatherer prometheus.Gatherer) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
