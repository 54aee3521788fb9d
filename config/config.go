package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// BuildYear may be stamped at link time (-ldflags "-X .../config.BuildYear=2025").
// It caps the year_met choice list; when empty the current year is used.
var BuildYear string

// AppConfig holds environment driven configuration values.
// Secrets have no defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort       string
	PublicBaseURL string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Admin gate
	AdminPassword string
	SessionSecret string
	// Record store
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string
	// Blob store
	BlobBackend       string
	PhotoBucket       string
	LocalBlobDir      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string
	S3UsePathStyle    bool
	// Redis for the listing cache; an empty host disables it
	RedisHost        string
	RedisPort        int
	RedisDB          int
	RedisPassword    string
	ListCacheTTLSec  int
	AllowedOrigins   []string
	YearMetMin       int
	YearMetMax       int
	MaxPhotoMB       int
	OrphanScanMinute int
	MetricsEnabled   bool
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// MaxPhotoBytes is the photo size limit in bytes.
func (c AppConfig) MaxPhotoBytes() int64 {
	return int64(c.MaxPhotoMB) * 1024 * 1024
}

// ListCacheTTL is the lifetime of a cached memory listing.
func (c AppConfig) ListCacheTTL() time.Duration {
	return time.Duration(c.ListCacheTTLSec) * time.Second
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c AppConfig) SecureCookies() bool {
	return strings.HasPrefix(strings.ToLower(c.PublicBaseURL), "https://")
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: .env (never overrides the real environment) -> config/config.json -> defaults -> environment
	_ = godotenv.Load()

	cfg.MetricsEnabled = true

	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("ignoring config/config.json: %v", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	// these depend on values the environment may have changed
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.AppPort
	}
	if cfg.DBPort == "" {
		cfg.DBPort = defaultDBPort(cfg.DBDriver)
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		log.Println("SESSION_SECRET not set; admin sessions will not survive a restart")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Validate reports misconfiguration that must stop the process at startup.
func (c AppConfig) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" && c.DatabaseURI == "" {
			errs = append(errs, errors.New("SQLITE_PATH or DATABASE_URI must be set for the sqlite driver"))
		}
	case "mysql", "postgres":
		if c.DatabaseURI == "" && (c.DBHost == "" || c.DBUser == "" || c.DBName == "") {
			errs = append(errs, fmt.Errorf("DATABASE_URI or DB_HOST/DB_USER/DB_NAME must be set for the %s driver", c.DBDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	switch c.BlobBackend {
	case "local":
		if c.LocalBlobDir == "" {
			errs = append(errs, errors.New("LOCAL_BLOB_DIR must be set for the local blob backend"))
		}
	case "s3":
		if c.PhotoBucket == "" {
			errs = append(errs, errors.New("PHOTO_BUCKET must be set for the s3 blob backend"))
		}
		if c.S3Region == "" {
			errs = append(errs, errors.New("S3_REGION must be set for the s3 blob backend"))
		}
		if c.S3Endpoint == "" && c.S3PublicURL == "" {
			errs = append(errs, errors.New("S3_ENDPOINT or S3_PUBLIC_URL must be set for the s3 blob backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend))
	}

	if c.YearMetMin <= 0 || c.YearMetMax < c.YearMetMin {
		errs = append(errs, fmt.Errorf("invalid year_met range %d..%d", c.YearMetMin, c.YearMetMax))
	}
	if c.MaxPhotoMB <= 0 {
		errs = append(errs, errors.New("MAX_PHOTO_MB must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// fileConfig mirrors config/config.json. Both grouped sections and flat keys are accepted.
type fileConfig struct {
	App struct {
		AppPort        string   `json:"AppPort"`
		PublicBaseURL  string   `json:"PublicBaseURL"`
		AdminPassword  string   `json:"AdminPassword"`
		SessionSecret  string   `json:"SessionSecret"`
		AllowedOrigins []string `json:"AllowedOrigins"`
		YearMetMin     int      `json:"YearMetMin"`
		YearMetMax     int      `json:"YearMetMax"`
		MaxPhotoMB     int      `json:"MaxPhotoMB"`
		MetricsEnabled *bool    `json:"MetricsEnabled"`
	} `json:"app"`
	Gin struct {
		Mode string `json:"Mode"`
		Path string `json:"Path"`
	} `json:"gin"`
	Database struct {
		Driver     string `json:"Driver"`
		URI        string `json:"URI"`
		Host       string `json:"Host"`
		Port       string `json:"Port"`
		User       string `json:"User"`
		Password   string `json:"Password"`
		Name       string `json:"Name"`
		SQLitePath string `json:"SQLitePath"`
	} `json:"database"`
	Storage struct {
		Backend          string `json:"Backend"`
		Bucket           string `json:"Bucket"`
		LocalDir         string `json:"LocalDir"`
		S3Endpoint       string `json:"S3Endpoint"`
		S3Region         string `json:"S3Region"`
		S3PublicURL      string `json:"S3PublicURL"`
		S3UsePathStyle   bool   `json:"S3UsePathStyle"`
		OrphanScanMinute int    `json:"OrphanScanMinutes"`
	} `json:"storage"`
	Redis struct {
		Host            string `json:"Host"`
		Port            int    `json:"Port"`
		DB              int    `json:"DB"`
		Password        string `json:"Password"`
		ListCacheTTLSec int    `json:"ListCacheTTLSec"`
	} `json:"redis"`
	Log struct {
		Level      string `json:"Level"`
		Path       string `json:"Path"`
		MaxSizeMB  int    `json:"MaxSizeMB"`
		MaxBackups int    `json:"MaxBackups"`
		MaxAgeDays int    `json:"MaxAgeDays"`
		Compress   bool   `json:"Compress"`
	} `json:"log"`

	// Flat keys
	AppPort       string `json:"AppPort"`
	AdminPassword string `json:"AdminPassword"`
	DBDriver      string `json:"DBDriver"`
	DatabaseURI   string `json:"DatabaseURI"`
	BlobBackend   string `json:"BlobBackend"`
	LogLevel      string `json:"LogLevel"`
}

// loadJSONConfig reads a JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	var fc fileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return err
	}

	out.AppPort = first(fc.App.AppPort, fc.AppPort)
	out.PublicBaseURL = fc.App.PublicBaseURL
	out.AdminPassword = first(fc.App.AdminPassword, fc.AdminPassword)
	out.SessionSecret = fc.App.SessionSecret
	out.AllowedOrigins = fc.App.AllowedOrigins
	out.YearMetMin = fc.App.YearMetMin
	out.YearMetMax = fc.App.YearMetMax
	out.MaxPhotoMB = fc.App.MaxPhotoMB
	if fc.App.MetricsEnabled != nil {
		out.MetricsEnabled = *fc.App.MetricsEnabled
	}
	out.GinMode = fc.Gin.Mode
	out.GinPath = fc.Gin.Path

	out.DBDriver = first(fc.Database.Driver, fc.DBDriver)
	out.DatabaseURI = first(fc.Database.URI, fc.DatabaseURI)
	out.DBHost = fc.Database.Host
	out.DBPort = fc.Database.Port
	out.DBUser = fc.Database.User
	out.DBPassword = fc.Database.Password
	out.DBName = fc.Database.Name
	out.SQLitePath = fc.Database.SQLitePath

	out.BlobBackend = first(fc.Storage.Backend, fc.BlobBackend)
	out.PhotoBucket = fc.Storage.Bucket
	out.LocalBlobDir = fc.Storage.LocalDir
	out.S3Endpoint = fc.Storage.S3Endpoint
	out.S3Region = fc.Storage.S3Region
	out.S3PublicURL = fc.Storage.S3PublicURL
	out.S3UsePathStyle = fc.Storage.S3UsePathStyle
	out.OrphanScanMinute = fc.Storage.OrphanScanMinute

	out.RedisHost = fc.Redis.Host
	out.RedisPort = fc.Redis.Port
	out.RedisDB = fc.Redis.DB
	out.RedisPassword = fc.Redis.Password
	out.ListCacheTTLSec = fc.Redis.ListCacheTTLSec

	out.LogLevel = first(fc.Log.Level, fc.LogLevel)
	out.LogPath = fc.Log.Path
	out.LogMaxSizeMB = fc.Log.MaxSizeMB
	out.LogMaxBackups = fc.Log.MaxBackups
	out.LogMaxAgeDays = fc.Log.MaxAgeDays
	out.LogCompress = fc.Log.Compress
	return nil
}

// applyDefaults fills zero values.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join("data", "memorybook.db")
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBName == "" {
		c.DBName = "memorybook"
	}
	if c.BlobBackend == "" {
		c.BlobBackend = "local"
	}
	if c.PhotoBucket == "" {
		c.PhotoBucket = "photos"
	}
	if c.LocalBlobDir == "" {
		c.LocalBlobDir = filepath.Join("data", "photos")
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.ListCacheTTLSec == 0 {
		c.ListCacheTTLSec = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.YearMetMin == 0 {
		c.YearMetMin = 1986
	}
	if c.YearMetMax == 0 {
		c.YearMetMax = buildYear()
	}
	if c.MaxPhotoMB == 0 {
		c.MaxPhotoMB = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("PUBLIC_BASE_URL", ""); v != "" {
		c.PublicBaseURL = strings.TrimRight(v, "/")
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("ADMIN_PASSWORD", ""); v != "" {
		c.AdminPassword = v
	}
	if v := getEnv("SESSION_SECRET", ""); v != "" {
		c.SessionSecret = v
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = strings.ToLower(v)
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("SQLITE_PATH", ""); v != "" {
		c.SQLitePath = v
	}
	if v := getEnv("BLOB_BACKEND", ""); v != "" {
		c.BlobBackend = strings.ToLower(v)
	}
	if v := getEnv("PHOTO_BUCKET", ""); v != "" {
		c.PhotoBucket = v
	}
	if v := getEnv("LOCAL_BLOB_DIR", ""); v != "" {
		c.LocalBlobDir = v
	}
	if v := getEnv("S3_ENDPOINT", ""); v != "" {
		c.S3Endpoint = strings.TrimRight(v, "/")
	}
	if v := getEnv("S3_REGION", ""); v != "" {
		c.S3Region = v
	}
	if v := getEnv("S3_ACCESS_KEY_ID", ""); v != "" {
		c.S3AccessKeyID = v
	}
	if v := getEnv("S3_SECRET_ACCESS_KEY", ""); v != "" {
		c.S3SecretAccessKey = v
	}
	if v := getEnv("S3_PUBLIC_URL", ""); v != "" {
		c.S3PublicURL = strings.TrimRight(v, "/")
	}
	if v := getEnv("S3_USE_PATH_STYLE", ""); v != "" {
		c.S3UsePathStyle = v == "true"
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LIST_CACHE_TTL_SEC", ""); v != "" {
		c.ListCacheTTLSec = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if v := getEnv("YEAR_MET_MIN", ""); v != "" {
		c.YearMetMin = mustParseInt(v)
	}
	if v := getEnv("YEAR_MET_MAX", ""); v != "" {
		c.YearMetMax = mustParseInt(v)
	}
	if v := getEnv("MAX_PHOTO_MB", ""); v != "" {
		c.MaxPhotoMB = mustParseInt(v)
	}
	if v := getEnv("ORPHAN_SCAN_MINUTES", ""); v != "" {
		c.OrphanScanMinute = mustParseInt(v)
	}
	if v := getEnv("METRICS_ENABLED", ""); v != "" {
		c.MetricsEnabled = v == "true"
	}
	// Logging env overrides
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
}

func defaultDBPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

func buildYear() int {
	if y, err := strconv.Atoi(BuildYear); err == nil && y > 0 {
		return y
	}
	return time.Now().Year()
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("failed to generate session secret: %v", err)
	}
	return hex.EncodeToString(b)
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
