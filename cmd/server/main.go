package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"

	"github.com/AlphaSurf-Browser/WolfPack/internal/auth"
	"github.com/AlphaSurf-Browser/WolfPack/internal/config"
	"github.com/AlphaSurf-Browser/WolfPack/internal/database"
	"github.com/AlphaSurf-Browser/WolfPack/internal/howl"
	"github.com/AlphaSurf-Browser/WolfPack/internal/logs"
	"github.com/AlphaSurf-Browser/WolfPack/internal/middleware"
	"github.com/AlphaSurf-Browser/WolfPack/internal/storage"
	"github.com/AlphaSurf-Browser/WolfPack/internal/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadConfig()
	ctx := context.Background()

	store, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		log.Fatalf("object store init: %v", err)
	}

	var db *gorm.DB
	if cfg.DBUrl != "" {
		db, err = database.Connect(cfg.DBUrl)
		if err != nil {
			log.Fatalf("database init: %v", err)
		}
	}

	var repo howl.Repository
	requireActor := false

	switch cfg.FeedBackend {
	case config.BackendFlat:
		flat := howl.NewFlatRepository(store, howl.FeedKey, cfg.FlatConditional)
		repo = flat
		logs.LogJSON("INFO", "Feed backend: flat collection", map[string]interface{}{
			"key":               howl.FeedKey,
			"conditionalWrites": flat.Conditional(),
		})

	case config.BackendDocument:
		if db == nil {
			log.Fatal("document backend requires DATABASE_URL")
		}
		if cfg.MongoURI == "" {
			log.Fatal("document backend requires MONGO_URI")
		}
		if cfg.JWTSecret == "" {
			log.Fatal("document backend requires JWT_SECRET")
		}

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("mongo init: %v", err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			log.Fatalf("mongo ping: %v", err)
		}

		repo = howl.NewDocumentRepository(client.Database(cfg.MongoDB), user.NewStore(db))
		requireActor = true
		logs.LogJSON("INFO", "Feed backend: document store", map[string]interface{}{
			"database": cfg.MongoDB,
		})

	default:
		log.Fatalf("unknown feed backend %q", cfg.FeedBackend)
	}

	svc := howl.NewService(repo, requireActor)
	handler := howl.NewHandler(svc, store)

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/howls", handler.List)

	// The document deployment requires an authenticated actor on every
	// mutation; the flat deployment accepts anonymous calls but still
	// attaches the identity when a token is present.
	guard := middleware.OptionalAuthMiddleware(cfg.JWTSecret)
	if requireActor {
		guard = middleware.AuthMiddleware(cfg.JWTSecret)
	}
	api.POST("/howls", guard, handler.Create)
	api.POST("/howls/:id/like", guard, handler.ToggleLike)

	if db != nil {
		authHandler := auth.NewHandler(user.NewStore(db), cfg.JWTSecret)
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
