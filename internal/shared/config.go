package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	CatalogBase    string
	CatalogRPS     int
	GeoapifyBase   string
	GeoapifyKey    string
	GeoapifyRPS    int
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	UserStore      string // catalog|mysql
	MySQLDSN       string
	SearchRadiusKm int
	FeedIdle       time.Duration
	WarmWorkers    int
	WarmTerms      []string
}

func Load() Config {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be read")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		CatalogBase:    env("CATALOG_BASE_URL", "http://localhost:5000"),
		CatalogRPS:     atoi("CATALOG_RPS", 20),
		GeoapifyBase:   env("GEOAPIFY_BASE_URL", "https://api.geoapify.com"),
		GeoapifyKey:    env("GEOAPIFY_API_KEY", ""),
		GeoapifyRPS:    atoi("GEOAPIFY_RPS", 5),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		UserStore:      strings.ToLower(env("USER_STORE", "catalog")),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/tripsync?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		SearchRadiusKm: atoi("SEARCH_RADIUS_KM", 50),
		FeedIdle:       time.Duration(atoi("SEARCH_FEED_IDLE_SECONDS", 900)) * time.Second,
		WarmWorkers:    atoi("WARM_WORKERS", 4),
		WarmTerms:      splitList(env("WARM_TERMS", "")),
	}
	if c.GeoapifyKey == "" {
		log.Warn().Msg("GEOAPIFY_API_KEY is empty; external results disabled")
	}
	if c.UserStore != "catalog" && c.UserStore != "mysql" {
		log.Warn().Str("user_store", c.UserStore).Msg("unknown USER_STORE; using catalog")
		c.UserStore = "catalog"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
