package shared

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	LegacyBase        string
	LegacyUser        string
	LegacyPassword    string
	LegacyListing     string
	LegacyPageSize    int
	LegacyMaxPages    int
	LegacyRPS         int
	LegacyMaxRetries  int
	LegacyBackoffBase time.Duration
	LegacyBackoffMax  time.Duration
	LegacyCacheTTL    time.Duration

	ExportDir       string
	SiteURL         string
	SiteTitle       string
	SiteDescription string
	SiteLanguage    string
}

// Load reads configuration from the environment once at process start.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "prod")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ADDR", "")
	v.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/hal?parseTime=true&charset=utf8mb4&loc=UTC")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LEGACY_BASE_URL", "https://hal.in.ua/wp-json/wp/v2")
	v.SetDefault("LEGACY_USER", "")
	v.SetDefault("LEGACY_PASSWORD", "")
	v.SetDefault("LEGACY_LISTING_TYPE", "listing")
	v.SetDefault("LEGACY_PAGE_SIZE", 100)
	v.SetDefault("LEGACY_MAX_PAGES", 1)
	v.SetDefault("LEGACY_RPS", 5)
	v.SetDefault("LEGACY_MAX_RETRIES", 3)
	v.SetDefault("LEGACY_BACKOFF_BASE_MS", 200)
	v.SetDefault("LEGACY_BACKOFF_MAX_MS", 10000)
	v.SetDefault("LEGACY_CACHE_TTL_SECONDS", 0)
	v.SetDefault("EXPORT_DIR", "wordpress_export")
	v.SetDefault("SITE_URL", "https://hal.in.ua")
	v.SetDefault("SITE_TITLE", "HAL Platform Export")
	v.SetDefault("SITE_DESCRIPTION", "Export from HAL document store")
	v.SetDefault("SITE_LANGUAGE", "uk")

	c := Config{
		AppEnv:      v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
		MySQLDSN:    v.GetString("MYSQL_DSN"),
		RedisAddr:   v.GetString("REDIS_ADDR"),
		RedisDB:     v.GetInt("REDIS_DB"),
		RedisPass:   v.GetString("REDIS_PASSWORD"),

		LegacyBase:        v.GetString("LEGACY_BASE_URL"),
		LegacyUser:        v.GetString("LEGACY_USER"),
		LegacyPassword:    v.GetString("LEGACY_PASSWORD"),
		LegacyListing:     v.GetString("LEGACY_LISTING_TYPE"),
		LegacyPageSize:    v.GetInt("LEGACY_PAGE_SIZE"),
		LegacyMaxPages:    v.GetInt("LEGACY_MAX_PAGES"),
		LegacyRPS:         v.GetInt("LEGACY_RPS"),
		LegacyMaxRetries:  v.GetInt("LEGACY_MAX_RETRIES"),
		LegacyBackoffBase: time.Duration(v.GetInt("LEGACY_BACKOFF_BASE_MS")) * time.Millisecond,
		LegacyBackoffMax:  time.Duration(v.GetInt("LEGACY_BACKOFF_MAX_MS")) * time.Millisecond,
		LegacyCacheTTL:    time.Duration(v.GetInt("LEGACY_CACHE_TTL_SECONDS")) * time.Second,

		ExportDir:       v.GetString("EXPORT_DIR"),
		SiteURL:         strings.TrimRight(v.GetString("SITE_URL"), "/"),
		SiteTitle:       v.GetString("SITE_TITLE"),
		SiteDescription: v.GetString("SITE_DESCRIPTION"),
		SiteLanguage:    v.GetString("SITE_LANGUAGE"),
	}
	if c.LegacyMaxPages > 1 {
		log.Info().Int("max_pages", c.LegacyMaxPages).Msg("legacy pagination enabled")
	}
	if c.LegacyCacheTTL > 0 && c.RedisAddr == "" {
		log.Warn().Msg("LEGACY_CACHE_TTL_SECONDS set but REDIS_ADDR is empty; fetch cache disabled")
	}
	return c
}
