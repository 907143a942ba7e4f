package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/PtahSamora/titcha-studyroom/internal/handler/http"
	wsHandler "github.com/PtahSamora/titcha-studyroom/internal/handler/websocket"
	"github.com/PtahSamora/titcha-studyroom/internal/hub"
	"github.com/PtahSamora/titcha-studyroom/internal/infra/oracle"
	gormpersistence "github.com/PtahSamora/titcha-studyroom/internal/infra/persistence/gorm"
	"github.com/PtahSamora/titcha-studyroom/internal/infra/setup"
	redisstate "github.com/PtahSamora/titcha-studyroom/internal/infra/state/redis"
	"github.com/PtahSamora/titcha-studyroom/internal/middleware"
	"github.com/PtahSamora/titcha-studyroom/internal/ratelimit"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
	"github.com/PtahSamora/titcha-studyroom/internal/tasks"
	"github.com/PtahSamora/titcha-studyroom/internal/worker"
)

// Config holds everything the app reads from the environment.
type Config struct {
	DBUser        string
	DBPassword    string
	DBHost        string
	DBPort        string
	DBName        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	ServerPort    string
	LogLevel      string
	AppEnv        string
	KeyPrefix     string

	RateLimitMax    int
	RateLimitWindow time.Duration
	JWTExpiryHours  int

	TutorAPIURL  string
	TutorAPIKey  string
	TutorTimeout time.Duration

	SceneThrottle     time.Duration
	AutosaveInterval  time.Duration
	LimiterIdleExpiry time.Duration
}

// LoadConfig reads configuration from the environment, with a .env file as
// optional convenience.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AppEnv:        os.Getenv("APP_ENV"),
		KeyPrefix:     os.Getenv("REDIS_KEY_PREFIX"),
		TutorAPIURL:   os.Getenv("TUTOR_API_URL"),
		TutorAPIKey:   os.Getenv("TUTOR_API_KEY"),

		RateLimitMax:      100,
		RateLimitWindow:   1 * time.Second,
		JWTExpiryHours:    24,
		TutorTimeout:      30 * time.Second,
		SceneThrottle:     hub.DefaultSceneInterval,
		AutosaveInterval:  2 * time.Minute,
		LimiterIdleExpiry: 1 * time.Hour,
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	if ms, err := strconv.Atoi(os.Getenv("SCENE_THROTTLE_MS")); err == nil && ms > 0 {
		cfg.SceneThrottle = time.Duration(ms) * time.Millisecond
	}
	if s, err := strconv.Atoi(os.Getenv("TUTOR_TIMEOUT_SECONDS")); err == nil && s > 0 {
		cfg.TutorTimeout = time.Duration(s) * time.Second
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "sr:"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if cfg.TutorAPIURL == "" {
		return nil, fmt.Errorf("environment variable TUTOR_API_URL must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App owns every long-lived component and their shutdown order.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server

	redisClientOpt asynq.RedisClientOpt
	scheduler      *asynq.Scheduler
	limiter        *ratelimit.Limiter
	bgCancel       context.CancelFunc
}

// NewApp loads config and wires every layer together.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	logrus.SetLevel(logLevel)
	log.Info("Configuration loaded successfully")

	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Infrastructure initialized")

	userRepo := gormpersistence.NewGormUserRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	permRepo := gormpersistence.NewGormPermissionRepository(db)
	controlRepo := gormpersistence.NewGormControlRepository(db)
	snapshotRepo := gormpersistence.NewGormSnapshotRepository(db)
	messageRepo := gormpersistence.NewGormMessageRepository(db)
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)
	log.Info("Repositories initialized")

	tutorOracle, err := oracle.NewHTTPClient(cfg.TutorAPIURL, cfg.TutorAPIKey, cfg.TutorTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create tutor oracle client: %w", err)
	}
	limiter := ratelimit.NewLimiter(cfg.LimiterIdleExpiry)

	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo, userRepo, permRepo, controlRepo, snapshotRepo, stateRepo)
	permissionService := service.NewPermissionService(permRepo, roomRepo, stateRepo)
	controlService := service.NewControlService(controlRepo, roomRepo, stateRepo)
	sceneService := service.NewSceneService(snapshotRepo, roomRepo, stateRepo)
	tutorService := service.NewTutorService(roomRepo, userRepo, permRepo, controlRepo, messageRepo, stateRepo, limiter, tutorOracle)
	log.Info("Services initialized")

	hubInstance := hub.NewHub(sceneService, stateRepo, messageRepo, cfg.SceneThrottle)

	authHandler := httpHandler.NewAuthHandler(authService)
	roomHandler := httpHandler.NewRoomHandler(roomService)
	permissionHandler := httpHandler.NewPermissionHandler(permissionService)
	controlHandler := httpHandler.NewControlHandler(controlService)
	sceneHandler := httpHandler.NewSceneHandler(sceneService)
	tutorHandler := httpHandler.NewTutorHandler(tutorService, roomService)
	websocketHandler := wsHandler.NewHandler(hubInstance, roomService)
	log.Info("Handlers initialized")

	workerServer := worker.NewWorkerServer(redisClientOpt, hubInstance, sceneService, log)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(stateRepo, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}
	roomRoutes := api.Group("/rooms")
	roomRoutes.Use(middleware.Auth(cfg.JWTSecret))
	{
		roomRoutes.POST("", roomHandler.CreateRoom)
		roomRoutes.POST("/join", roomHandler.JoinByInviteCode)
		roomRoutes.POST("/:roomId/join", roomHandler.JoinRoom)
		roomRoutes.GET("/:roomId/permissions", permissionHandler.Get)
		roomRoutes.POST("/:roomId/permissions", permissionHandler.Update)
		roomRoutes.GET("/:roomId/control", controlHandler.Get)
		roomRoutes.POST("/:roomId/control", controlHandler.Update)
		roomRoutes.GET("/:roomId/scene", sceneHandler.Get)
		roomRoutes.POST("/:roomId/scene", sceneHandler.Save)
		roomRoutes.POST("/:roomId/ask", tutorHandler.Ask)
	}
	wsRoutes := router.Group("/ws")
	wsRoutes.Use(middleware.Auth(cfg.JWTSecret))
	{
		wsRoutes.GET("/room/:roomId", websocketHandler.HandleConnection)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	return &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            hubInstance,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
		limiter:        limiter,
	}, nil
}

// Start launches the background routines and the HTTP listener.
func (a *App) Start() {
	bgCtx, cancel := context.WithCancel(context.Background())
	a.bgCancel = cancel

	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go a.AsynqServer.Start()
	a.Log.Info("Worker server routine started")

	go a.limiter.RunSweeper(bgCtx, 10*time.Minute)

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server listening on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	a.scheduler = asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})

	schedule := fmt.Sprintf("@every %s", a.Config.AutosaveInterval)
	entryID, err := a.scheduler.Register(schedule, tasks.NewSceneAutosaveTask(), asynq.Queue("default"))
	if err != nil {
		a.Log.Errorf("Could not register scene autosave task: %v", err)
	} else {
		a.Log.Infof("Scene autosave registered with schedule '%s' (EntryID: %s)", schedule, entryID)
	}

	go func() {
		if err := a.scheduler.Run(); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			a.Log.Errorf("Scheduler Run() failed: %v", err)
		}
	}()
}

// Shutdown stops components in dependency order: stop producing work, drain
// workers, stop accepting requests, then close clients.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}
	if a.bgCancel != nil {
		a.bgCancel()
	}
	if a.Hub != nil {
		a.Hub.StopAllSubscriptions()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs each request with latency and status.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		entry := log.WithFields(logrus.Fields{
			"status":    statusCode,
			"latency":   latency,
			"client_ip": c.ClientIP(),
			"method":    c.Request.Method,
			"path":      path,
		})
		if errMsg := c.Errors.ByType(gin.ErrorTypePrivate).String(); errMsg != "" {
			entry = entry.WithField("error", errMsg)
		}
		switch {
		case statusCode >= 500:
			entry.Error("Request completed")
		case statusCode >= 400:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
		if allowedOrigin == "" {
			allowedOrigin = "http://localhost:3000"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
