package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/lifetrack-app/lifetrack-backend/internal/blob"
	"github.com/lifetrack-app/lifetrack-backend/internal/cache"
	"github.com/lifetrack-app/lifetrack-backend/internal/config"
	"github.com/lifetrack-app/lifetrack-backend/internal/database"
	"github.com/lifetrack-app/lifetrack-backend/internal/events"
	"github.com/lifetrack-app/lifetrack-backend/internal/handlers"
	"github.com/lifetrack-app/lifetrack-backend/internal/journal"
	"github.com/lifetrack-app/lifetrack-backend/internal/middleware"
	"github.com/lifetrack-app/lifetrack-backend/internal/routes"
	"github.com/lifetrack-app/lifetrack-backend/internal/sentiment"
	"github.com/lifetrack-app/lifetrack-backend/internal/storage"
	"github.com/lifetrack-app/lifetrack-backend/internal/telemetry"
	"github.com/lifetrack-app/lifetrack-backend/internal/users"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Resolve live/mock once, up front. Business logic never branches on
	// this again; each adapter below is constructed for its mode.
	modes := cfg.ResolveModes()
	log.Printf("Service modes: entries=%s users=%s cache=%s blobs=%s sentiment=%s telemetry=%s",
		modes.Entries, modes.Users, modes.Cache, modes.Blobs, modes.Sentiment, modes.Telemetry)
	if cfg.MockMode {
		log.Println("⚠️  MOCK_MODE enabled: every backing service runs in-memory")
	}

	// Root context for the background loops (event subscriber, sweeper).
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Journal entries: MongoDB or in-memory.
	var entryStore storage.EntryStore
	if modes.Entries == config.ModeLive {
		log.Printf("Connecting to MongoDB...")
		client, db, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB: ", err)
		}
		defer database.DisconnectMongo(client)

		mongoStore := storage.NewMongoStore(db)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
		} else {
			log.Println("✅ MongoDB journal indexes ensured")
		}
		entryStore = mongoStore
	} else {
		log.Println("⚠️  Journal entries: in-memory store (set MONGODB_URI for persistence)")
		entryStore = storage.NewMemoryStore()
	}

	// User accounts: PostgreSQL or in-memory.
	var userStore users.Store
	if modes.Users == config.ModeLive {
		log.Printf("Connecting to PostgreSQL...")
		db, err := database.ConnectPostgres(cfg.PostgresURI)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL: ", err)
		}
		defer db.Close()
		userStore = users.NewPostgresStore(db)
	} else {
		log.Println("⚠️  User accounts: in-memory store (set POSTGRES_URI for persistence)")
		userStore = users.NewMemoryStore()
	}

	// Redis covers three concerns when present: the read cache, the
	// cross-instance event fan-out, and the blob release queue.
	hub := events.NewHub()
	var (
		cacheStore cache.Cache
		publisher  events.Publisher
		releases   blob.ReleaseQueue
	)
	if modes.Cache == config.ModeLive {
		log.Printf("Connecting to Redis...")
		rdb, err := database.ConnectRedis(cfg.RedisURI)
		if err != nil {
			log.Fatal("Failed to connect to Redis: ", err)
		}
		defer rdb.Close()

		cacheStore = cache.NewRedisCache(rdb)
		publisher = events.NewRedisPublisher(rdb)
		releases = blob.NewRedisReleaseQueue(rdb)
		go events.RunSubscriber(ctx, rdb, hub)
	} else {
		log.Println("⚠️  Cache/events: in-process only (set REDIS_URI for cross-instance fan-out)")
		cacheStore = cache.NewMemoryCache()
		publisher = events.NewLocalPublisher(hub)
		releases = blob.NewMemoryReleaseQueue()
	}

	// Attachment binaries: Cloudinary or in-memory.
	var blobStore blob.Store
	if modes.Blobs == config.ModeLive {
		store, err := blob.NewCloudinaryStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Fatal("Failed to initialize Cloudinary: ", err)
		}
		log.Println("✅ Cloudinary blob store initialized")
		blobStore = store
	} else {
		log.Println("⚠️  Attachments: in-memory blob store (set Cloudinary credentials for uploads)")
		blobStore = blob.NewMemoryStore()
	}

	// Sentiment scoring: external text analytics or the local lexicon.
	var classifier sentiment.Classifier
	if modes.Sentiment == config.ModeLive {
		log.Println("✅ Sentiment: external text-analytics classifier")
		classifier = sentiment.NewRemoteClassifier(cfg.TextAnalyticsEndpoint, cfg.TextAnalyticsKey)
	} else {
		log.Println("⚠️  Sentiment: local lexicon classifier (set TEXT_ANALYTICS_ENDPOINT/KEY for the real one)")
		classifier = sentiment.NewLexiconClassifier()
	}

	// Telemetry: Prometheus or nothing.
	var tracker telemetry.Tracker = telemetry.Noop{}
	var prom *telemetry.Prometheus
	if modes.Telemetry == config.ModeLive {
		prom = telemetry.NewPrometheus()
		tracker = prom
		log.Println("✅ Telemetry enabled (/metrics)")
	}

	svc := journal.NewService(journal.Deps{
		Store:      entryStore,
		Classifier: classifier,
		Blobs:      blobStore,
		Releases:   releases,
		Cache:      cacheStore,
		Publisher:  publisher,
		Tracker:    tracker,
	})

	// Retry blob deletes that failed during entry deletes or detaches.
	go journal.NewSweeper(blobStore, releases, time.Hour).Run(ctx)

	tokens := middleware.NewAuthenticator(cfg.JWTSecret, 24*time.Hour)
	exposeErrors := !cfg.IsProduction()

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if prom != nil {
		r.Use(prom.Instrument)
	}

	// Production only: security headers, host pinning, per-IP and sign-in rate limits
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost, "/auth/signin", "/auth/signup") {
			r.Use(mw)
		}
		if cfg.AllowedHost != "" {
			log.Printf("✅ Host check enabled for %s", cfg.AllowedHost)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + sign-in rate limiting)")
	}

	routes.SetupRoutes(r, routes.Deps{
		Journal:  handlers.NewJournal(svc, exposeErrors),
		Insights: handlers.NewInsights(svc, exposeErrors),
		Auth:     handlers.NewAuth(userStore, tokens, exposeErrors),
		Events:   handlers.NewEvents(hub),
		Health:   handlers.NewHealth(modes),
		Tokens:   tokens,
		Metrics:  metricsHandler(prom),
	})

	// Log registered routes for debugging
	log.Println("📋 Registered routes:")
	log.Println("  GET    /health")
	log.Println("  POST   /auth/signup")
	log.Println("  POST   /auth/signin")
	log.Println("  GET    /auth/me")
	log.Println("  POST   /journals")
	log.Println("  GET    /journals")
	log.Println("  GET    /journals/search")
	log.Println("  GET    /journals/{id}")
	log.Println("  PUT    /journals/{id}")
	log.Println("  DELETE /journals/{id}")
	log.Println("  POST   /journals/{id}/attachments")
	log.Println("  DELETE /journals/{id}/attachments/{attachmentID}")
	log.Println("  GET    /insights/mood")
	log.Println("  GET    /ws/journal")

	log.Printf("🚀 LifeTrack backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func metricsHandler(prom *telemetry.Prometheus) http.Handler {
	if prom == nil {
		return nil
	}
	return prom.Handler()
}
