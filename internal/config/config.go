package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7/pkg/s3utils"
	"github.com/spf13/viper"

	"github.com/casa-guarda/service-listing/internal/platform/database"
	"github.com/casa-guarda/service-listing/internal/platform/logger"
	"github.com/casa-guarda/service-listing/internal/storage"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LISTING"

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// KafkaConfig holds broker settings. An empty broker list disables events.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// Enabled reports whether brokers are configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RedisConfig holds the listing read cache settings. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	// Driver is "minio" or "disk".
	Driver        string
	Minio         storage.MinioConfig
	DiskRoot      string
	DiskBaseURL   string
	HouseBucket   string
	RoomBucket    string
	ProfileBucket string
	MaxUploadMB   int64
}

// ServiceConfig holds all configuration for the listing service.
type ServiceConfig struct {
	Port             string
	AppEnv           string
	MigrationsDir    string
	DBConfig         database.PostgresConfig
	JWTConfig        JWTConfig
	KafkaConfig      KafkaConfig
	RedisConfig      RedisConfig
	StorageConfig    StorageConfig
	LogLevel         string
	LogFile          logger.FileConfig
	CORSOrigins      []string
	RateLimitPerMin  int
	PlaceholderImage string
	SessionIdleTTL   time.Duration
	SessionSweep     time.Duration
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *ServiceConfig) IsDevelopment() bool { return c.AppEnv == "development" }

// Load reads configuration from LISTING_* environment variables and an
// optional config.yaml in the working directory or /etc/service-listing.
func Load() (*ServiceConfig, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/service-listing")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("migrations.dir", "migrations")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "listing_db")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.group_prefix", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)

	v.SetDefault("storage.driver", "disk")
	v.SetDefault("storage.minio.endpoint", "localhost:9000")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.public_base_url", "")
	v.SetDefault("storage.disk.root", "./data/images")
	v.SetDefault("storage.disk.base_url", "http://localhost:8080/images")
	v.SetDefault("storage.house_bucket", "house-images")
	v.SetDefault("storage.room_bucket", "room-images")
	v.SetDefault("storage.profile_bucket", "profile-pictures")
	v.SetDefault("storage.max_upload_mb", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("cors.origins", "")
	v.SetDefault("rate_limit.per_minute", 120)
	v.SetDefault("placeholder_image", "/static/placeholder.svg")
	v.SetDefault("session.idle_ttl", 2*time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		Port:          normalizePort(v.GetString("service.port")),
		AppEnv:        v.GetString("app.env"),
		MigrationsDir: v.GetString("migrations.dir"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		JWTConfig: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			AccessTTL:  v.GetDuration("jwt.access_ttl"),
			RefreshTTL: v.GetDuration("jwt.refresh_ttl"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("kafka.brokers")),
			GroupPrefix: v.GetString("kafka.group_prefix"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		StorageConfig: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
			Minio: storage.MinioConfig{
				Endpoint:      v.GetString("storage.minio.endpoint"),
				AccessKey:     v.GetString("storage.minio.access_key"),
				SecretKey:     v.GetString("storage.minio.secret_key"),
				UseSSL:        v.GetBool("storage.minio.use_ssl"),
				PublicBaseURL: v.GetString("storage.minio.public_base_url"),
			},
			DiskRoot:      v.GetString("storage.disk.root"),
			DiskBaseURL:   v.GetString("storage.disk.base_url"),
			HouseBucket:   v.GetString("storage.house_bucket"),
			RoomBucket:    v.GetString("storage.room_bucket"),
			ProfileBucket: v.GetString("storage.profile_bucket"),
			MaxUploadMB:   v.GetInt64("storage.max_upload_mb"),
		},
		LogLevel: v.GetString("log.level"),
		LogFile: logger.FileConfig{
			Path:       v.GetString("log.file.path"),
			MaxSizeMB:  v.GetInt("log.file.max_size_mb"),
			MaxBackups: v.GetInt("log.file.max_backups"),
			MaxAgeDays: v.GetInt("log.file.max_age_days"),
			Compress:   v.GetBool("log.file.compress"),
		},
		CORSOrigins:      splitList(v.GetString("cors.origins")),
		RateLimitPerMin:  v.GetInt("rate_limit.per_minute"),
		PlaceholderImage: v.GetString("placeholder_image"),
		SessionIdleTTL:   v.GetDuration("session.idle_ttl"),
		SessionSweep:     v.GetDuration("session.sweep_interval"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.JWTConfig.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("LISTING_JWT_SECRET is required outside development")
		}
		c.JWTConfig.Secret = "dev-secret-change-me"
	}
	switch c.StorageConfig.Driver {
	case "minio", "disk":
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageConfig.Driver)
	}
	buckets := map[string]string{}
	for _, b := range []struct{ name, value string }{
		{"house", c.StorageConfig.HouseBucket},
		{"room", c.StorageConfig.RoomBucket},
		{"profile", c.StorageConfig.ProfileBucket},
	} {
		if err := s3utils.CheckValidBucketNameStrict(b.value); err != nil {
			return fmt.Errorf("invalid %s bucket %q: %w", b.name, b.value, err)
		}
		if other, ok := buckets[b.value]; ok {
			return fmt.Errorf("%s and %s buckets must differ", other, b.name)
		}
		buckets[b.value] = b.name
	}
	return nil
}

func normalizePort(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
