package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"papercv/internal/api/middleware"
	"papercv/internal/config"
	"papercv/internal/render"
	"papercv/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	storageClient *storage.Client,
	logger *slog.Logger,
) {
	registry := render.NewRegistry()

	exportHandler := NewExportHandler(db, asynqClient, storageClient, registry)
	renderHandler := NewRenderHandler(registry)
	syncHandler := NewSyncHandler(db, time.Duration(cfg.Sync.LinkTTLHours)*time.Hour)
	atsHandler := NewATSHandler()
	assetHandler := NewAssetHandler(db, storageClient, redisClient, logger, cfg.Assets)
	wsHandler := NewWsHandler(redisClient, logger, nil)

	clientID := middleware.ClientIDMiddleware()

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)
		v1.GET("/templates", renderHandler.ListTemplates)
		v1.POST("/render", renderHandler.Render)
		v1.POST("/ats/score", atsHandler.Score)

		v1.POST("/sync", syncHandler.CreateLink)
		v1.GET("/sync/:key", syncHandler.GetLink)

		exportGroup := v1.Group("/exports")
		exportGroup.Use(clientID)
		{
			exportGroup.POST("", exportHandler.CreateExport)
			exportGroup.GET("/:key", exportHandler.GetExport)
			exportGroup.GET("/:key/download-link", exportHandler.GetDownloadLink)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(clientID)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("", assetHandler.ListAssets)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
			assetGroup.DELETE("", assetHandler.DeleteAsset)
		}

		internalGroup := v1.Group("/internal")
		internalGroup.Use(middleware.InternalSecretMiddleware(cfg.Internal.Secret))
		{
			internalGroup.GET("/exports/:id/payload", exportHandler.GetExportPayload)
		}
	}
}
