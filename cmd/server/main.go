package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Kohanchuk66/anime-back/internal/auth"
	"github.com/Kohanchuk66/anime-back/internal/config"
	"github.com/Kohanchuk66/anime-back/internal/handlers"
	appMiddleware "github.com/Kohanchuk66/anime-back/internal/middleware"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, disconnect, err := services.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer disconnect(context.Background())

	issuer := auth.NewTokenIssuer(cfg.Tokens)
	mailer := services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	captcha := services.NewRecaptchaVerifier(cfg.RecaptchaSecret)

	userService := services.NewMongoUserService(ctx, db)
	movieService := services.NewMongoMovieService(ctx, db)
	animeService := services.NewMongoAnimeService(ctx, db)
	newsService := services.NewMongoNewsService(ctx, db)
	watchlistService := services.NewMongoWatchlistService(ctx, db)
	reportService := services.NewMongoReportService(ctx, db)
	imageService := services.NewImageService(cfg.UploadDir)

	var captchaVerifier handlers.CaptchaVerifier
	if captcha != nil {
		captchaVerifier = captcha
	}

	authHandler := handlers.NewAuthHandler(userService, issuer, mailer, captchaVerifier, cfg.FrontendOrigin, cfg.BcryptCost, cfg.Tokens.RefreshTTL)
	movieHandler := handlers.NewMovieHandler(movieService)
	animeHandler := handlers.NewAnimeHandler(animeService)
	newsHandler := handlers.NewNewsHandler(newsService)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService, animeService)
	reportHandler := handlers.NewReportHandler(reportService)
	imageHandler := handlers.NewImageHandler(imageService, cfg.MaxUploadSizeMB)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	allowedOrigins := []string{"*"}
	if cfg.FrontendOrigin != "" {
		allowedOrigins = []string{cfg.FrontendOrigin}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session endpoints live at the root so the refresh cookie path stays
	// scoped to /refresh_token.
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/refresh_token", authHandler.RefreshToken)
	r.With(appMiddleware.OptionalAuth(issuer)).Post("/logout", authHandler.Logout)
	r.Post("/email-verify", authHandler.EmailVerify)
	r.Post("/send-email-verification", authHandler.SendEmailVerification)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/reset-password", authHandler.ResetPassword)

	r.Route("/api", func(r chi.Router) {
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", movieHandler.List)
			r.Get("/{slug}", movieHandler.GetBySlug)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(issuer))
				r.Post("/", movieHandler.Create)
				r.Put("/{id}", movieHandler.Update)
				r.Delete("/{id}", movieHandler.Delete)
			})
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", animeHandler.List)
			r.Get("/meta/genres", animeHandler.Genres)
			r.Get("/meta/studios", animeHandler.Studios)
			r.Get("/{id}", animeHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(issuer))
				r.Post("/{id}/rate", animeHandler.Rate)
			})
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(issuer))
				r.Use(appMiddleware.RequireRole(models.RoleAdmin, models.RoleModerator))
				r.Post("/", animeHandler.Create)
				r.Put("/{id}", animeHandler.Update)
			})
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(issuer))
				r.Use(appMiddleware.RequireRole(models.RoleAdmin))
				r.Delete("/{id}", animeHandler.Delete)
			})
		})

		r.Route("/news", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.OptionalAuth(issuer))
				r.Get("/", newsHandler.List)
				r.Get("/{id}", newsHandler.Get)
			})
			r.Get("/meta/tags", newsHandler.Tags)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(issuer))
				r.Post("/{id}/like", newsHandler.ToggleLike)
				r.Post("/{id}/comments", newsHandler.AddComment)
				r.Delete("/{id}/comments/{commentId}", newsHandler.DeleteComment)
			})
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(issuer))
				r.Use(appMiddleware.RequireRole(models.RoleAdmin, models.RoleModerator))
				r.Post("/", newsHandler.Create)
				r.Put("/{id}", newsHandler.Update)
				r.Delete("/{id}", newsHandler.Delete)
			})
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.With(appMiddleware.OptionalAuth(issuer)).Get("/public", watchlistHandler.ListPublic)
			r.With(appMiddleware.OptionalAuth(issuer)).Get("/{id}", watchlistHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(issuer))
				r.Get("/", watchlistHandler.ListOwn)
				r.Post("/", watchlistHandler.Create)
				r.Put("/{id}", watchlistHandler.Update)
				r.Delete("/{id}", watchlistHandler.Delete)
				r.Post("/{id}/anime/{animeId}", watchlistHandler.AddEntry)
				r.Put("/{id}/anime/{animeId}", watchlistHandler.UpdateEntry)
				r.Delete("/{id}/anime/{animeId}", watchlistHandler.RemoveEntry)
				r.Post("/{id}/follow", watchlistHandler.ToggleFollow)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(issuer))
			r.Post("/", reportHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireRole(models.RoleAdmin, models.RoleModerator))
				r.Get("/", reportHandler.List)
				r.Get("/stats/overview", reportHandler.Stats)
				r.Get("/{id}", reportHandler.Get)
				r.Put("/{id}", reportHandler.Update)
			})
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireRole(models.RoleAdmin))
				r.Delete("/{id}", reportHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(issuer))
			r.Post("/uploads", imageHandler.Upload)
			r.Delete("/uploads/{id}", imageHandler.Delete)
		})
	})

	// Serve uploaded files
	workDir, _ := os.Getwd()
	filesDir := http.Dir(workDir + "/" + cfg.UploadDir)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesDir)))

	logger.Info("server starting", zap.String("address", cfg.ServerAddress))
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
