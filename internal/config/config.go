package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Engine    EngineConfig    `mapstructure:"engine"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// EngineConfig 个性化引擎参数。启动时加载一次，按值传入评分逻辑，运行期间不可变。
type EngineConfig struct {
	WeakTopicThreshold    int `mapstructure:"weak_topic_threshold"`
	StrongTopicThreshold  int `mapstructure:"strong_topic_threshold"`
	PromoteThreshold      int `mapstructure:"promote_threshold"`
	DemoteThreshold       int `mapstructure:"demote_threshold"`
	RecommendationTTLDays int `mapstructure:"recommendation_ttl_days"`
	ExamPassingScore      int `mapstructure:"exam_passing_score"`
	ExamDurationMinutes   int `mapstructure:"exam_duration_minutes"`
	ExamMaxAttempts       int `mapstructure:"exam_max_attempts"`
	ExamMinQuestions      int `mapstructure:"exam_min_questions"`
	ExamMaxQuestions      int `mapstructure:"exam_max_questions"`
	EligibilityPercent    int `mapstructure:"eligibility_percent"`
}

// DefaultEngineConfig 默认引擎参数，配置缺省时以及单元测试中使用。
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WeakTopicThreshold:    50,
		StrongTopicThreshold:  70,
		PromoteThreshold:      80,
		DemoteThreshold:       40,
		RecommendationTTLDays: 7,
		ExamPassingScore:      70,
		ExamDurationMinutes:   60,
		ExamMaxAttempts:       3,
		ExamMinQuestions:      10,
		ExamMaxQuestions:      20,
		EligibilityPercent:    80,
	}
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("LEARNSPHERE")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	applyEngineDefaults(&cfg.Engine)

	return &cfg, nil
}

func applyEngineDefaults(e *EngineConfig) {
	d := DefaultEngineConfig()
	if e.WeakTopicThreshold == 0 {
		e.WeakTopicThreshold = d.WeakTopicThreshold
	}
	if e.StrongTopicThreshold == 0 {
		e.StrongTopicThreshold = d.StrongTopicThreshold
	}
	if e.PromoteThreshold == 0 {
		e.PromoteThreshold = d.PromoteThreshold
	}
	if e.DemoteThreshold == 0 {
		e.DemoteThreshold = d.DemoteThreshold
	}
	if e.RecommendationTTLDays == 0 {
		e.RecommendationTTLDays = d.RecommendationTTLDays
	}
	if e.ExamPassingScore == 0 {
		e.ExamPassingScore = d.ExamPassingScore
	}
	if e.ExamDurationMinutes == 0 {
		e.ExamDurationMinutes = d.ExamDurationMinutes
	}
	if e.ExamMaxAttempts == 0 {
		e.ExamMaxAttempts = d.ExamMaxAttempts
	}
	if e.ExamMinQuestions == 0 {
		e.ExamMinQuestions = d.ExamMinQuestions
	}
	if e.ExamMaxQuestions == 0 {
		e.ExamMaxQuestions = d.ExamMaxQuestions
	}
	if e.EligibilityPercent == 0 {
		e.EligibilityPercent = d.EligibilityPercent
	}
}
