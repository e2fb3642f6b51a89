package main

import (
	"log"

	"go-repo-hub/internal/api"
	"go-repo-hub/internal/dify"
	"go-repo-hub/internal/middleware"
	"go-repo-hub/internal/notify"
	"go-repo-hub/internal/repository"
	"go-repo-hub/internal/service"
	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/db"
	"go-repo-hub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 初始化配置
	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库连接
	if err := db.InitDB(); err != nil {
		logger.L.Fatal("Failed to initialize database", zap.Error(err))
	}

	// 同步事件分发器
	hub, err := notify.CreateHub()
	if err != nil {
		logger.L.Fatal("Failed to create event notifier", zap.Error(err))
	}
	if err := notify.StartHub(hub); err != nil {
		logger.L.Fatal("Failed to start event notifier", zap.Error(err))
	}

	// 知识库客户端 配置缺失时自动降级为本地检索
	kbClient := dify.NewClient(dify.FromGlobal)
	if !kbClient.Configured() {
		logger.L.Warn("Dify is not configured, search will use the local fallback")
	}

	// 仓储层
	userRepo := repository.NewUserRepository()
	repoRepo := repository.NewRepoRepository()
	fileRepo := repository.NewFileRepository()

	// 业务层
	authService := service.NewAuthService(userRepo)
	repoService := service.NewRepoService(repoRepo)
	fileService, err := service.NewFileService(fileRepo, kbClient, hub)
	if err != nil {
		logger.L.Fatal("Failed to initialize file service", zap.Error(err))
	}
	searchService := service.NewSearchService(fileRepo, repoRepo, kbClient)
	adminService := service.NewAdminService(userRepo, fileRepo, repoRepo)

	// 处理器
	authHandler := api.NewAuthHandler(authService)
	repoHandler := api.NewRepoHandler(repoService)
	fileHandler := api.NewFileHandler(fileService, repoService)
	searchHandler := api.NewSearchHandler(searchService)
	adminHandler := api.NewAdminHandler(adminService)
	wsHandler := api.NewWSHandler(hub)

	// 创建Gin引擎
	r := gin.New()
	r.Use(middleware.GinZapLogger(), gin.Recovery())

	// 公开路由
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	// 受保护的路由
	protected := r.Group("/api", middleware.AuthMiddleware())
	{
		protected.GET("/repos", repoHandler.ListRepos)
		protected.POST("/repos", repoHandler.CreateRepo)
		protected.GET("/repos/:repoId", repoHandler.GetRepo)

		protected.GET("/repos/:repoId/files", fileHandler.ListFiles)
		protected.POST("/repos/:repoId/files", fileHandler.UploadFile)
		protected.GET("/repos/:repoId/files/:fileId/download", fileHandler.DownloadFile)
		protected.DELETE("/repos/:repoId/files/:fileId", fileHandler.DeleteFile)

		protected.GET("/search", searchHandler.Search)

		protected.GET("/ws", wsHandler.HandleConnection)

		// 管理端
		admin := protected.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/files", adminHandler.ListAllFiles)
		}
	}

	// 启动服务器
	addr := config.GlobalConfig.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	logger.L.Info("Starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.L.Fatal("Failed to start server", zap.Error(err))
	}
}
