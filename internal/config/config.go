package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	DBPath    string           `json:"db_path"`
	Port      int              `json:"port"`
	BaseURL   string           `json:"base_url"`
	LogConfig logger.LogConfig `json:"log_config"`
	FileStore FileStoreConfig  `json:"file_store"`
	Providers []ProviderConfig `json:"providers"`
	Chunk     ChunkConfig      `json:"chunk"`
	Retrieve  RetrieveConfig   `json:"retrieve"`
	Transform TransformConfig  `json:"transform"`
	Upload    UploadConfig     `json:"upload"`
	JobSweep  JobSweepConfig   `json:"job_sweep"`
}

type FileStoreConfig struct {
	Type      string   `json:"type"`
	Dir       string   `json:"dir"`
	PublicURL string   `json:"public_url"`
	S3        S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	PublicURL string `json:"public_url"`
	UseSSL    bool   `json:"use_ssl"`
}

// ProviderConfig selects a registered text or image provider. A missing
// args.api_key falls back to the <NAME>_API_KEY environment variable so
// secrets can stay in the environment or a .env file.
type ProviderConfig struct {
	Name       string      `json:"name"`
	Model      string      `json:"model"`
	ImageModel string      `json:"image_model"`
	Args       interface{} `json:"args"`
}

type ChunkConfig struct {
	Size    int `json:"size"`
	Overlap int `json:"overlap"`
}

type RetrieveConfig struct {
	TopK int `json:"top_k"`
}

type TransformConfig struct {
	TimeoutSec    int `json:"timeout_sec"`
	MaxSlides     int `json:"max_slides"`
	ImageParallel int `json:"image_parallel"`
	CacheSize     int `json:"cache_size"`
	CacheTTLMin   int `json:"cache_ttl_min"`
}

type UploadConfig struct {
	MaxBytes int64 `json:"max_bytes"`
}

type JobSweepConfig struct {
	Cron        string `json:"cron"`
	RetainHours int    `json:"retain_hours"`
}

func Load(path string) (*Config, error) {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	for i := range cfg.Providers {
		if cfg.Providers[i].Name == "" || cfg.Providers[i].Model == "" {
			return nil, fmt.Errorf("provider name and model are required")
		}
		fillProviderKey(&cfg.Providers[i])
	}
	if cfg.Chunk.Size == 0 {
		cfg.Chunk.Size = 1000
	}
	if cfg.Chunk.Overlap == 0 {
		cfg.Chunk.Overlap = 200
	}
	if cfg.Retrieve.TopK == 0 {
		cfg.Retrieve.TopK = 5
	}
	if cfg.Transform.TimeoutSec == 0 {
		cfg.Transform.TimeoutSec = 300
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 20 << 20
	}
	if cfg.JobSweep.Cron == "" {
		cfg.JobSweep.Cron = "0 * * * *"
	}
	if cfg.JobSweep.RetainHours == 0 {
		cfg.JobSweep.RetainHours = 72
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local":
		if cfg.FileStore.Dir == "" {
			return nil, fmt.Errorf("file_store.dir is required for local store")
		}
	case "s3":
		if cfg.FileStore.S3.Endpoint == "" || cfg.FileStore.S3.Bucket == "" || cfg.FileStore.S3.SecretID == "" || cfg.FileStore.S3.SecretKey == "" {
			return nil, fmt.Errorf("file_store.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
		if cfg.FileStore.S3.Region == "" {
			cfg.FileStore.S3.Region = "cn"
		}
	default:
		return nil, fmt.Errorf("file_store.type must be local or s3")
	}
	return &cfg, nil
}

func fillProviderKey(p *ProviderConfig) {
	key := os.Getenv(strings.ToUpper(p.Name) + "_API_KEY")
	if key == "" {
		return
	}
	args, ok := p.Args.(map[string]interface{})
	if !ok {
		if p.Args != nil {
			return
		}
		args = map[string]interface{}{}
	}
	if v, ok := args["api_key"].(string); ok && v != "" {
		return
	}
	args["api_key"] = key
	p.Args = args
}
