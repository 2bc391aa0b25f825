package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/config"
	"github.com/pu-ac-cn/sysadmin-backend/internal/database"
	"github.com/pu-ac-cn/sysadmin-backend/internal/handler"
	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
	"github.com/pu-ac-cn/sysadmin-backend/internal/middleware"
	"github.com/pu-ac-cn/sysadmin-backend/internal/redis"
	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	// 初始化数据库连接
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	// 初始化 Redis 连接
	if err := redis.Init(&cfg.Redis); err != nil {
		log.Fatalf("初始化 Redis 失败: %v", err)
	}
	defer redis.Close()
	log.Println("Redis 连接成功")

	db := database.GetDB()

	// 初始化 Repository
	deptRepo := repository.NewDeptRepository(db)
	principalRepo := repository.NewPrincipalRepository(db)

	// 初始化 Service
	authz := service.NewAuthorizer()
	scope := service.NewScopeResolver(deptRepo)
	tokens := service.NewTokenService(&cfg.JWT)
	sessions := service.NewSessionStore()
	principals := service.NewPrincipalService(principalRepo)

	deptService := service.NewDeptService(db, deptRepo, authz, scope)
	userService := service.NewUserService(db, principalRepo, tokens, sessions, authz, scope, &cfg.JWT)
	roleService := service.NewRoleService(db, authz, scope)
	postService := service.NewPostService(db, authz, scope)
	permService := service.NewPermissionService(db, authz, scope)
	logService := service.NewOperationLogService(db, authz, scope)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(userService)
	deptHandler := handler.NewDeptHandler(deptService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	postHandler := handler.NewPostHandler(postService)
	permHandler := handler.NewPermissionHandler(permService)
	logHandler := handler.NewOperationLogHandler(logService)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()

	// 全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		if err := database.Ping(); err != nil {
			dbStatus = "error"
		}

		redisStatus := "ok"
		redisClient := redis.GetClient()
		if redisClient == nil {
			redisStatus = "error"
		} else if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error"
		}

		response.Success(c, gin.H{
			"status":   "ok",
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
			"redis":    redisStatus,
		})
	})

	// API 路由组
	api := router.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, "pong")
		})

		// 认证路由（公开）
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// 需要认证的路由
		authRequired := api.Group("")
		authRequired.Use(middleware.JWTAuth(tokens, sessions, principals))
		authRequired.Use(middleware.Audit(logService))
		{
			authRequired.POST("/auth/logout", authHandler.Logout)
			authRequired.GET("/auth/profile", authHandler.Profile)
			authRequired.POST("/auth/password", authHandler.ChangePassword)

			depts := authRequired.Group("/depts")
			{
				depts.GET("/tree", deptHandler.Tree)
				depts.GET("/options", deptHandler.Options)
				depts.GET("/:id", deptHandler.Get)
				depts.POST("/search", deptHandler.Search)
				depts.POST("", deptHandler.Create)
				depts.PUT("/:id", deptHandler.Update)
				depts.DELETE("/:id", deptHandler.Delete)
			}

			users := authRequired.Group("/users")
			{
				users.GET("/options", userHandler.Options)
				users.GET("/:id", userHandler.Get)
				users.POST("/search", userHandler.Search)
				users.POST("", userHandler.Create)
				users.PUT("/:id", userHandler.Update)
				users.PUT("/:id/roles", userHandler.AssignRoles)
				users.PUT("/:id/password", userHandler.ResetPassword)
				users.DELETE("/:id", userHandler.Delete)
			}

			roles := authRequired.Group("/roles")
			{
				roles.GET("/options", roleHandler.Options)
				roles.GET("/:id", roleHandler.Get)
				roles.GET("/:id/depts/tree", roleHandler.DeptTree)
				roles.POST("/search", roleHandler.Search)
				roles.POST("", roleHandler.Create)
				roles.PUT("/:id", roleHandler.Update)
				roles.PUT("/:id/permissions", roleHandler.ConfigurePermissions)
				roles.PUT("/:id/users", roleHandler.AssignUsers)
				roles.DELETE("/:id", roleHandler.Delete)
			}

			posts := authRequired.Group("/posts")
			{
				posts.GET("/options", postHandler.Options)
				posts.GET("/:id", postHandler.Get)
				posts.POST("/search", postHandler.Search)
				posts.POST("", postHandler.Create)
				posts.PUT("/:id", postHandler.Update)
				posts.DELETE("/:id", postHandler.Delete)
			}

			permissions := authRequired.Group("/permissions")
			{
				permissions.POST("/search", permHandler.Search)
				permissions.POST("/sync", permHandler.Sync)
			}

			oplogs := authRequired.Group("/operation-logs")
			{
				oplogs.GET("/:id", logHandler.Get)
				oplogs.POST("/search", logHandler.Search)
			}
		}
	}

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		log.Printf("服务启动，监听地址: %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，等待 5 秒
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务关闭失败: %v", err)
	}

	log.Println("服务已关闭")
}
