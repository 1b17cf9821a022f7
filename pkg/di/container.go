package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"musicschool-news/application/serviceimpl"
	"musicschool-news/domain/repositories"
	"musicschool-news/domain/services"
	"musicschool-news/infrastructure/metrics"
	"musicschool-news/infrastructure/postgres"
	"musicschool-news/infrastructure/redis"
	"musicschool-news/infrastructure/storage"
	"musicschool-news/infrastructure/viewcache"
	"musicschool-news/infrastructure/websocket"
	"musicschool-news/interfaces/api/handlers"
	"musicschool-news/pkg/clock"
	"musicschool-news/pkg/config"
	"musicschool-news/pkg/logger"
	"musicschool-news/pkg/scheduler"
)

const (
	viewSweepJobID       = "view-cache-sweep"
	activityCleanupJobID = "activity-log-cleanup"
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redis.RedisClient
	BlobStore      storage.BlobStore
	LocalStorage   *storage.LocalStorage // set only for the local driver
	ViewCache      services.ViewCounterCache
	MemoryViews    *viewcache.Memory // set only for the memory driver
	EventScheduler scheduler.EventScheduler
	Hub            *websocket.Hub
	Registry       *prometheus.Registry
	Metrics        *metrics.Metrics

	// Repositories
	NewsRepository        repositories.NewsRepository
	NewsMediaRepository   repositories.NewsMediaRepository
	ActivityLogRepository repositories.ActivityLogRepository

	// Services
	SlugAllocator        services.SlugAllocator
	MediaOrderingService services.MediaOrderingService
	NewsService          services.NewsService
	ActivityLogService   services.ActivityLogService
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Startup("config_loaded", "Configuration loaded", map[string]interface{}{
		"env":           cfg.App.Env,
		"storage":       cfg.Storage.Driver,
		"view_cache":    cfg.ViewCache.Driver,
		"view_window":   cfg.ViewCache.Window.String(),
		"max_media_mib": cfg.Media.MaxBytes >> 20,
	})
	return nil
}

func (c *Container) initInfrastructure() error {
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Startup("db_connected", "Database connected", nil)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Startup("db_migrated", "Database migrated", nil)

	if err := c.initRedis(); err != nil {
		return err
	}

	if err := c.initStorage(); err != nil {
		return err
	}

	c.initViewCache()

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.New(c.Registry)

	c.Hub = websocket.NewHub()
	logger.Startup("websocket_hub_initialized", "News websocket hub initialized", nil)

	return nil
}

// initRedis connects only when the view cache needs it. A redis view cache without Redis is fatal.
func (c *Container) initRedis() error {
	if c.Config.ViewCache.Driver != "redis" {
		return nil
	}

	redisConfig := redis.RedisConfig{
		Host:     c.Config.Redis.Host,
		Port:     c.Config.Redis.Port,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
	c.RedisClient = redis.NewRedisClient(redisConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.RedisClient.Ping(ctx); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Startup("redis_connected", "Redis connected", nil)
	return nil
}

func (c *Container) initStorage() error {
	switch c.Config.Storage.Driver {
	case "bunny":
		c.BlobStore = storage.NewBunnyStorage(storage.BunnyConfig{
			StorageZone: c.Config.Bunny.StorageZone,
			AccessKey:   c.Config.Bunny.AccessKey,
			BaseURL:     c.Config.Bunny.BaseURL,
			CDNUrl:      c.Config.Bunny.CDNUrl,
		})
		logger.Startup("bunny_storage_initialized", "Bunny Storage initialized", nil)
	default:
		local, err := storage.NewLocalStorage(c.Config.Storage.LocalDir, c.Config.Storage.LocalURL)
		if err != nil {
			return err
		}
		c.LocalStorage = local
		c.BlobStore = local
		logger.Startup("local_storage_initialized", "Local storage initialized", map[string]interface{}{"dir": local.Dir()})
	}
	return nil
}

func (c *Container) initViewCache() {
	window := c.Config.ViewCache.Window
	if c.RedisClient != nil {
		c.ViewCache = viewcache.NewRedis(c.RedisClient.Client(), window)
		logger.Startup("view_cache_initialized", "Redis view cache initialized", nil)
		return
	}

	c.MemoryViews = viewcache.NewMemory(window)
	c.ViewCache = c.MemoryViews
	logger.Startup("view_cache_initialized", "In-memory view cache initialized", nil)
}

func (c *Container) initRepositories() error {
	c.NewsRepository = postgres.NewNewsRepository(c.DB)
	c.NewsMediaRepository = postgres.NewNewsMediaRepository(c.DB)
	c.ActivityLogRepository = postgres.NewActivityLogRepository(c.DB)
	logger.Startup("repositories_initialized", "Repositories initialized", nil)
	return nil
}

func (c *Container) initServices() error {
	clk := clock.Real{}

	c.ActivityLogService = serviceimpl.NewActivityLogService(c.ActivityLogRepository, clk)
	c.SlugAllocator = serviceimpl.NewSlugAllocator(c.NewsRepository)
	c.MediaOrderingService = serviceimpl.NewMediaOrderingService(c.NewsMediaRepository, c.BlobStore, c.Metrics, clk)
	c.NewsService = serviceimpl.NewNewsService(serviceimpl.NewsServiceDeps{
		NewsRepo:      c.NewsRepository,
		MediaRepo:     c.NewsMediaRepository,
		Slugs:         c.SlugAllocator,
		Media:         c.MediaOrderingService,
		Views:         c.ViewCache,
		Blobs:         c.BlobStore,
		Events:        serviceimpl.FanoutPublisher{c.ActivityLogService, c.Hub},
		Metrics:       c.Metrics,
		Clock:         clk,
		Locks:         serviceimpl.NewArticleLocker(),
		MaxMediaBytes: c.Config.Media.MaxBytes,
	})

	logger.Startup("services_initialized", "Services initialized", nil)
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()

	// Redis expires its own keys; only the in-memory cache needs sweeping.
	if c.MemoryViews != nil && c.Config.ViewCache.SweepCron != "" {
		views := c.MemoryViews
		err := c.EventScheduler.AddJob(viewSweepJobID, c.Config.ViewCache.SweepCron, func() {
			before := views.Len()
			views.Sweep(time.Now())
			if evicted := before - views.Len(); evicted > 0 {
				logger.Cache("view_cache_swept", "Expired view entries evicted", map[string]interface{}{"evicted": evicted})
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule view cache sweep: %w", err)
		}
	}

	if c.Config.Activity.RetentionDays > 0 && c.Config.Activity.CleanupCron != "" {
		days := c.Config.Activity.RetentionDays
		err := c.EventScheduler.AddJob(activityCleanupJobID, c.Config.Activity.CleanupCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			deleted, err := c.ActivityLogService.Cleanup(ctx, days)
			if err != nil {
				logger.SchedulerError("activity_cleanup_failed", "Activity log cleanup failed", err, nil)
				return
			}
			if deleted > 0 {
				logger.Scheduler("activity_cleanup_done", "Old activity entries deleted", map[string]interface{}{"deleted": deleted, "retention_days": days})
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule activity cleanup: %w", err)
		}
	}

	c.EventScheduler.Start()
	logger.Startup("scheduler_started", "Event scheduler started", nil)
	return nil
}

func (c *Container) Cleanup() error {
	logger.Startup("cleanup_started", "Starting cleanup...", nil)

	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
		logger.Startup("scheduler_stopped", "Event scheduler stopped", nil)
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.StartupWarn("redis_close_failed", "Failed to close Redis connection", map[string]interface{}{"error": err.Error()})
		} else {
			logger.Startup("redis_closed", "Redis connection closed", nil)
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.StartupWarn("db_close_failed", "Failed to close database connection", map[string]interface{}{"error": err.Error()})
			} else {
				logger.Startup("db_closed", "Database connection closed", nil)
			}
		}
	}

	logger.Startup("cleanup_completed", "Cleanup completed", nil)
	logger.Default().Close()
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetHandlers builds the HTTP handlers from the wired services.
func (c *Container) GetHandlers() *handlers.Handlers {
	var viewStats handlers.ViewCacheStats
	if c.MemoryViews != nil {
		viewStats = c.MemoryViews
	}
	health := handlers.NewHealthHandler(c.DB, c.RedisClient, viewStats, c.Hub)
	return handlers.NewHandlers(&handlers.Services{
		NewsService:        c.NewsService,
		ActivityLogService: c.ActivityLogService,
	}, health)
}
