package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/spf13/viper"

	shared "github.com/ripixel/fitglue-planner/pkg"
	"github.com/ripixel/fitglue-planner/pkg/infrastructure/database"
	infrapubsub "github.com/ripixel/fitglue-planner/pkg/infrastructure/pubsub"
	infrastorage "github.com/ripixel/fitglue-planner/pkg/infrastructure/storage"
)

const DefaultMinSafeCandidates = 6

// Config holds standard configuration for all services
type Config struct {
	ProjectID         string        `mapstructure:"google_cloud_project"`
	EnablePublish     bool          `mapstructure:"enable_publish"`
	GCSArtifactBucket string        `mapstructure:"gcs_artifact_bucket"`
	LogLevel          string        `mapstructure:"log_level"`
	MinSafeCandidates int           `mapstructure:"plan_min_safe_candidates"`
	ExportArtifacts   bool          `mapstructure:"plan_export_artifacts"`
	CatalogCacheTTL   time.Duration `mapstructure:"catalog_cache_ttl"`
}

// Service holds initialized dependencies
type Service struct {
	DB     shared.Database
	Store  shared.BlobStore
	Pub    shared.Publisher
	Config *Config
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("google_cloud_project", shared.ProjectID)
	v.SetDefault("enable_publish", false)
	v.SetDefault("gcs_artifact_bucket", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("plan_min_safe_candidates", DefaultMinSafeCandidates)
	v.SetDefault("plan_export_artifacts", false)
	v.SetDefault("catalog_cache_ttl", database.DefaultCatalogCacheTTL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	cfg, err := loadConfig(newViper())
	if err != nil {
		slog.Warn("Invalid configuration, using defaults", "error", err)
		cfg, _ = loadConfig(defaultsOnly())
	}
	return cfg
}

func defaultsOnly() *viper.Viper {
	v := viper.New()
	v.SetDefault("google_cloud_project", shared.ProjectID)
	v.SetDefault("log_level", "info")
	v.SetDefault("plan_min_safe_candidates", DefaultMinSafeCandidates)
	v.SetDefault("catalog_cache_ttl", database.DefaultCatalogCacheTTL)
	return v
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = shared.ProjectID
	}
	if cfg.MinSafeCandidates <= 0 {
		cfg.MinSafeCandidates = DefaultMinSafeCandidates
	}
	if cfg.CatalogCacheTTL <= 0 {
		cfg.CatalogCacheTTL = database.DefaultCatalogCacheTTL
	}
	return &cfg, nil
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the
// message. The component may come from the record or from logger.With.
type ComponentHandler struct {
	slog.Handler
	component string
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			return false
		}
		return true
	})

	if component != "" {
		newRecord := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("[%s] %s", component, r.Message), r.PC)
		r.Attrs(func(a slog.Attr) bool {
			if a.Key != "component" {
				newRecord.AddAttrs(a)
			}
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs lifts a component attribute out of the attribute set.
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	rest := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "component" {
			component = a.Value.String()
			continue
		}
		rest = append(rest, a)
	}
	return &ComponentHandler{Handler: h.Handler.WithAttrs(rest), component: component}
}

func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{Handler: h.Handler.WithGroup(name), component: h.component}
}

// ParseLevel maps LOG_LEVEL values to slog levels; unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger configures structured logging with Cloud Logging compatible keys
func InitLogger(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, GetSlogHandlerOptions(level))
	slog.SetDefault(slog.New(&ComponentHandler{Handler: handler}))
}

// NewLogger creates a configured logger instance. Development loggers use
// the text handler.
func NewLogger(serviceName string, isDev bool) *slog.Logger {
	opts := GetSlogHandlerOptions(ParseLevel(os.Getenv("LOG_LEVEL")))
	var handler slog.Handler
	if isDev {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context) (*Service, error) {
	cfg := LoadConfig()
	InitLogger(ParseLevel(cfg.LogLevel))

	slog.Info("Initializing service", "project_id", cfg.ProjectID)

	// Firestore
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			slog.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient}
		slog.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{}
		slog.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Storage is only needed when artifacts are exported
	var store shared.BlobStore
	if cfg.ExportArtifacts {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			slog.Error("Storage init failed", "error", err)
			return nil, fmt.Errorf("storage init: %w", err)
		}
		store = &infrastorage.StorageAdapter{Client: gcsClient}
	}

	return &Service{
		DB:     database.NewFirestoreAdapter(fsClient, cfg.CatalogCacheTTL),
		Pub:    pubAdapter,
		Store:  store,
		Config: cfg,
	}, nil
}
