package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/000francisca0/Peluchemaniav3/middleware/ratelimit"
	adminmod "github.com/000francisca0/Peluchemaniav3/modules/admin"
	apimod "github.com/000francisca0/Peluchemaniav3/modules/api"
	auditmod "github.com/000francisca0/Peluchemaniav3/modules/audit"
	backendmod "github.com/000francisca0/Peluchemaniav3/modules/backend"
	cachemod "github.com/000francisca0/Peluchemaniav3/modules/cache"
	cartmod "github.com/000francisca0/Peluchemaniav3/modules/cart"
	catalogmod "github.com/000francisca0/Peluchemaniav3/modules/catalog"
	checkoutmod "github.com/000francisca0/Peluchemaniav3/modules/checkout"
	reportmod "github.com/000francisca0/Peluchemaniav3/modules/report"
	sessionmod "github.com/000francisca0/Peluchemaniav3/modules/session"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	// Load configuration from environment
	httpPort := getEnvInt("HTTP_PORT", apimod.DefaultPort)
	backendURL := getEnv("BACKEND_BASE_URL", "http://localhost:8080/api")
	backendTimeout := getEnvDuration("BACKEND_TIMEOUT", 10*time.Second)
	sessionStore := getEnv("SESSION_BACKEND", sessionmod.StoreKV)
	sessionTTL := getEnvDuration("SESSION_TTL", 24*time.Hour)
	sessionSecret := getEnv("SESSION_SECRET", "")
	redisAddr := getEnv("REDIS_ADDR", "")
	redisPassword := getEnv("REDIS_PASSWORD", "")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	cachePrefix := getEnv("CACHE_PREFIX", "catalog:")
	checkoutDB := getEnv("CHECKOUT_DB_PATH", "checkout.db")
	exportConcurrency := getEnvInt("EXPORT_CONCURRENCY", 8)
	checkoutLimit := getEnvInt("RATE_LIMIT_CHECKOUT", 5)
	loginLimit := getEnvInt("RATE_LIMIT_LOGIN", 10)
	limitWindow := getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)
	jetstreamDir := getEnv("JETSTREAM_DIR", filepath.Join(os.TempDir(), "peluchemania"))
	timezone := getEnv("TIMEZONE", "America/Santiago")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Printf("Warning: unknown timezone %s, using local time: %v", timezone, err)
		loc = time.Local
	}
	time.Local = loc

	tokenConfig := sessionmod.DefaultTokenConfig()
	tokenConfig.Duration = sessionTTL
	if sessionSecret != "" {
		tokenConfig.SecretKey = sessionSecret
	} else {
		log.Println("Warning: SESSION_SECRET not set, using the development secret")
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(jetstreamDir),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	// Plugins
	kvPlugin, err := kvjetstream.New(kvjetstream.Config{
		Buckets: []kvjetstream.BucketConfig{
			{
				Name:        sessionmod.BucketName,
				Description: "Storefront sessions",
				TTL:         sessionTTL,
				Storage:     kvjetstream.FileStorage,
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create kv plugin: %v", err)
	}

	plugins := []struct {
		alias  string
		plugin mono.PluginModule
	}{
		{"kv", kvPlugin},
		{"backend", backendmod.NewPluginModule(backendURL, backendTimeout)},
		{"cache", cachemod.NewPluginModuleWithConfig(redisAddr, cachePrefix, cacheTTL)},
	}
	for _, p := range plugins {
		if err := app.RegisterPlugin(p.plugin, p.alias); err != nil {
			log.Fatalf("Failed to register plugin %s: %v", p.alias, err)
		}
	}

	// Create modules
	sessionModule := sessionmod.NewModule(sessionmod.Config{
		Store:     sessionStore,
		RedisAddr: redisAddr,
		Token:     tokenConfig,
	})
	cartModule := cartmod.NewModule()
	catalogModule := catalogmod.NewModule()
	checkoutModule := checkoutmod.NewModule(checkoutDB)
	adminModule := adminmod.NewModule()
	reportModule := reportmod.NewModule(reportmod.Config{
		Location:    loc,
		Concurrency: exportConcurrency,
	})
	auditModule := auditmod.NewModule(auditmod.DefaultCapacity)
	rateLimit := ratelimit.New(
		ratelimit.WithRedisAddr(redisAddr),
		ratelimit.WithRedisPassword(redisPassword),
		ratelimit.WithRule(apimod.RuleLogin, loginLimit, limitWindow),
		ratelimit.WithRule(apimod.RuleCheckout, checkoutLimit, limitWindow),
	)
	apiModule := apimod.NewModule(httpPort, apimod.Modules{
		Catalog:   catalogModule,
		Checkout:  checkoutModule,
		Admin:     adminModule,
		Reports:   reportModule,
		Audit:     auditModule,
		RateLimit: rateLimit,
	})

	// Register modules (the framework resolves dependency order)
	modules := []mono.Module{
		sessionModule,
		cartModule,
		catalogModule,
		checkoutModule,
		adminModule,
		reportModule,
		auditModule,
		rateLimit,
		apiModule,
	}
	for _, module := range modules {
		if err := app.Register(module); err != nil {
			log.Fatalf("Failed to register module %s: %v", module.Name(), err)
		}
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	printStartupInfo(httpPort, backendURL, sessionStore, redisAddr, jetstreamDir, loc)

	// Setup graceful shutdown using gelmium/graceful-shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int, backendURL, sessionStore, redisAddr, jetstreamDir string, loc *time.Location) {
	redis := redisAddr
	if redis == "" {
		redis = "disabled (no cache, no rate limiting)"
	}

	log.Println("=== Peluchemania Started ===")
	log.Printf("API available at http://localhost:%d", port)
	log.Printf("Shop backend: %s", backendURL)
	log.Printf("Sessions: %s", sessionStore)
	log.Printf("JetStream dir: %s", jetstreamDir)
	log.Printf("Redis: %s", redis)
	log.Printf("Timezone: %s", loc)
	log.Println("Endpoints:")
	log.Println("  GET    /health                         - Health check")
	log.Println("  POST   /api/v1/auth/login              - Log in")
	log.Println("  POST   /api/v1/auth/register           - Sign up")
	log.Println("  POST   /api/v1/auth/logout             - Log out")
	log.Println("  GET    /api/v1/products                - Catalog")
	log.Println("  GET    /api/v1/products/offers         - Products on sale")
	log.Println("  GET    /api/v1/categories              - Categories")
	log.Println("  GET    /api/v1/cart                    - Current cart")
	log.Println("  POST   /api/v1/cart/items              - Add to cart")
	log.Println("  GET    /api/v1/checkout                - Checkout form and status")
	log.Println("  POST   /api/v1/checkout                - Submit purchase")
	log.Println("  GET    /api/v1/admin/dashboard         - Back-office summary")
	log.Println("  GET    /api/v1/admin/reports/export    - Sales CSV")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
