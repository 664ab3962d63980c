package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"recipeshare/internal/config"
	"recipeshare/internal/database"
	"recipeshare/internal/handler"
	"recipeshare/internal/middleware"
	"recipeshare/internal/queue"
	"recipeshare/internal/repository"
	"recipeshare/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	bookmarks := repository.NewBookmarkRepo(db)
	recipes := repository.NewRecipeRepo(db)

	// Redis is optional: without it the limiter and cache are pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response caching disabled")
	}
	auth := middleware.Auth(cfg.JWTSecret, users, tokens)
	cache := middleware.CacheGET(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	router.RegisterRoutes(e)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, users, tokens, bookmarks, recipes), auth, cache)
	router.RegisterRecipes(e, handler.NewRecipeHandler(recipes), auth, cache)

	// Activity events land in logs/activity.log; the consumer reconnects on
	// broker failure and never stops the server.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
