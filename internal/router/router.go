package router

import (
	"sft-go/internal/config"
	"sft-go/internal/handler"
	"sft-go/internal/middleware"
	"sft-go/internal/repository"
	"sft-go/internal/service"
	"sft-go/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtManager *utils.JWTManager,
	logger *logrus.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg))

	// 健康检查
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "指令微调数据管理系统 API",
			"version": "1.0.0",
		})
	})

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	fileRepo := repository.NewDatasetFileRepository(db)
	runRepo := repository.NewMergeRunRepository(db)
	taskRepo := repository.NewTrainingTaskRepository(db)
	trainerRepo := repository.NewTrainerConfigRepository(db)

	// 初始化Service
	authService := service.NewAuthService(userRepo, jwtManager, cfg)
	datasetService := service.NewDatasetService(fileRepo)
	mergeService := service.NewMergeService(fileRepo, runRepo, logger)
	trainerService := service.NewTrainerService(trainerRepo, redisClient)
	taskManager := service.NewFineTuneManager(taskRepo, mergeService, trainerService, redisClient, cfg, logger)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	datasetHandler := handler.NewDatasetHandler(datasetService)
	mergeHandler := handler.NewMergeHandler(mergeService)
	taskHandler := handler.NewTaskHandler(taskManager)
	trainerHandler := handler.NewTrainerHandler(trainerService)
	adminHandler := handler.NewAdminHandler(userRepo, taskRepo)

	// API路由组
	api := r.Group("/api")
	{
		// 公开路由
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 内部API（训练服务进度回调，使用内部密钥认证）
		api.POST("/internal/progress/:task_id", middleware.InternalAPIAuth(), taskHandler.InternalProgress)

		// 认证路由
		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware(jwtManager))
		{
			// 用户信息
			authorized.GET("/me", authHandler.GetMe)

			// 样本文件管理
			authorized.GET("/dataset_files", datasetHandler.ListFiles)
			authorized.POST("/dataset_files/upload", datasetHandler.UploadFile)
			authorized.GET("/dataset_files/:file_id", datasetHandler.GetFile)
			authorized.DELETE("/dataset_files/:file_id", datasetHandler.DeleteFile)
			authorized.POST("/dataset_files/batch_delete", datasetHandler.BatchDeleteFiles)
			authorized.GET("/dataset_files/:file_id/download", datasetHandler.DownloadFile)
			authorized.GET("/dataset_files/:file_id/download_jsonl", datasetHandler.DownloadFileAsJSONL)
			authorized.GET("/dataset_files/:file_id/content", datasetHandler.GetFileContent)
			authorized.GET("/dataset_files/:file_id/content/editable", datasetHandler.GetFileContentEditable)
			authorized.PUT("/dataset_files/:file_id/content/:item_index", datasetHandler.UpdateFileItem)

			// 合并与过滤
			authorized.POST("/merge", mergeHandler.RunMerge)
			authorized.GET("/merge_runs", mergeHandler.ListRuns)
			authorized.GET("/merge_runs/:run_id", mergeHandler.GetRun)
			authorized.DELETE("/merge_runs/:run_id", mergeHandler.DeleteRun)
			authorized.GET("/merge_runs/:run_id/download", mergeHandler.DownloadOutput)

			// 微调任务管理
			authorized.POST("/finetune/start", taskHandler.StartTask)
			authorized.GET("/finetune/progress/:task_id", taskHandler.GetProgress)
			authorized.POST("/finetune/stop/:task_id", taskHandler.StopTask)
			authorized.GET("/finetune/status/:task_id", taskHandler.GetTaskStatus)
			authorized.GET("/finetune/tasks", taskHandler.ListTasks)
			authorized.GET("/finetune/active_task", taskHandler.GetActiveTask)
			authorized.DELETE("/finetune/task/:task_id", taskHandler.DeleteTask)

			// 训练服务配置
			authorized.GET("/trainers", trainerHandler.GetConfigs)

			// 管理员接口
			adminGroup := authorized.Group("/admin")
			adminGroup.Use(middleware.AdminMiddleware())
			{
				adminGroup.GET("/users", adminHandler.ListUsers)
				adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

				adminGroup.GET("/trainers", trainerHandler.GetAllConfigs)
				adminGroup.POST("/trainers", trainerHandler.CreateConfig)
				adminGroup.PUT("/trainers/:config_id", trainerHandler.UpdateConfig)
				adminGroup.DELETE("/trainers/:config_id", trainerHandler.DeleteConfig)
				adminGroup.GET("/trainers/check", trainerHandler.CheckService)

				adminGroup.GET("/tasks", adminHandler.ListAllTasks)
				adminGroup.DELETE("/tasks/:task_id", adminHandler.DeleteTask)
			}
		}
	}

	return r
}
