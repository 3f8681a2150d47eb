package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/memestream/memestream-service/internal/cache"
	"github.com/memestream/memestream-service/internal/config"
	authhandlers "github.com/memestream/memestream-service/internal/http/handlers/auth"
	"github.com/memestream/memestream-service/internal/http/handlers/memes"
	"github.com/memestream/memestream-service/internal/http/handlers/messages"
	"github.com/memestream/memestream-service/internal/http/handlers/users"
	"github.com/memestream/memestream-service/internal/http/middleware"
	"github.com/memestream/memestream-service/internal/memstore"
	"github.com/memestream/memestream-service/internal/services/media"
	"github.com/memestream/memestream-service/internal/storage/postgres"
)

func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	pg, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// redis setup (rate limiting + user cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	// object storage for meme uploads
	mediaService, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media storage:", err)
	}
	slog.Info("Connected to object storage", slog.String("bucket", cfg.MinIO.BucketName))

	userStore := cache.NewUserCache(pg, redisClient)
	store := memstore.New()

	authMW := middleware.AuthMiddleware(cfg.JWTSecret)
	rateLimits := middleware.NewRateLimitConfig(redisClient)

	// setup server
	router := http.NewServeMux()

	// auth surface (relational accounts)
	router.HandleFunc("POST /auth/register", authhandlers.Register(userStore, pg, cfg.JWTSecret, cfg.TokenTTL))
	router.HandleFunc("POST /auth/login", authhandlers.Login(userStore, pg, cfg.JWTSecret, cfg.TokenTTL))
	router.HandleFunc("POST /auth/logout", authhandlers.Logout(pg))
	router.Handle("GET /auth/me", authMW(authhandlers.Me(userStore)))
	router.Handle("PUT /auth/profile", authMW(authhandlers.UpdateProfile(userStore)))

	// legacy wallet-keyed surface (in-memory store)
	router.HandleFunc("POST /users/register", users.RegisterUser(store))
	router.HandleFunc("GET /users/search", users.SearchUsers(store))
	router.HandleFunc("GET /users", users.ListUsers(store))
	router.HandleFunc("GET /users/{wallet}", users.GetUserByWallet(store))
	router.HandleFunc("PUT /users/{wallet}", users.UpdateUser(store))
	router.HandleFunc("GET /users/{user_id}/posts", users.GetUserPosts(store))
	router.HandleFunc("GET /users/{user_id}/followers", users.GetFollowers(store))
	router.HandleFunc("GET /users/{user_id}/following", users.GetFollowing(store))

	uploadMeme := memes.UploadMeme(store, mediaService, cfg.Media.MaxFileSize)
	router.HandleFunc("GET /memes", memes.GetMemes(store))
	router.Handle("POST /memes", rateLimits.RateLimitedHandler("memes", middleware.RemoteHostKey, uploadMeme))
	router.Handle("POST /memes/upload", rateLimits.RateLimitedHandler("memes", middleware.RemoteHostKey, uploadMeme))
	router.HandleFunc("POST /memes/{id}/like", memes.LikeMeme(store))
	router.HandleFunc("GET /memes/{post_id}/comments", memes.GetComments(store))
	router.Handle("POST /memes/{post_id}/comments",
		rateLimits.RateLimitedHandler("comments", middleware.PathValueKey("post_id"), memes.AddComment(store)))

	router.HandleFunc("GET /feed/{user_id}", memes.FollowingFeed(store))

	router.HandleFunc("POST /follow", users.FollowUser(store))
	router.HandleFunc("DELETE /follow", users.UnfollowUser(store))
	router.HandleFunc("GET /follow/check/{follower_id}/{following_id}", users.CheckFollowing(store))

	router.Handle("POST /messages/send",
		rateLimits.RateLimitedHandler("messages", middleware.RemoteHostKey, messages.SendMessage(store)))
	router.HandleFunc("GET /messages/conversations/{user_id}", messages.GetConversations(store))
	router.HandleFunc("GET /messages/{user_id}/{other_user_id}", messages.GetMessages(store))
	router.HandleFunc("PUT /messages/read/{user_id}/{other_user_id}", messages.MarkRead(store))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
