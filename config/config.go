package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath  string `json:"selfpath"`
	Port      string `json:"port"`
	Blocksize int    `json:"blocksize"`
	TileCount int    `json:"tilecount"`
	Database  string `json:"database"`
	SkinDir   string `json:"skindir"`
	LogLevel  string `json:"loglevel"`
}

var (
	instance *AppConfig
	mu       sync.RWMutex
	once     sync.Once
)

func defaultConfig() *AppConfig {
	return &AppConfig{
		SelfPath:  "localhost:38870", // Default value
		Port:      "38870",           // Default value
		Blocksize: 10,
		TileCount: 60,
		Database:  ":memory:",
		SkinDir:   "./skins",
		LogLevel:  "info",
	}
}

// LoadConfig initializes and returns the instance of AppConfig.
// A missing file is created with the defaults; environment variables
// (and a .env file, if present) override file values.
func LoadConfig(filePath string) *AppConfig {
	once.Do(func() {
		_ = godotenv.Load()
		cfg := defaultConfig()
		// Load the config file if it exists, otherwise create one
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			if err := saveConfig(filePath, cfg); err != nil {
				log.Warn().Err(err).Str("path", filePath).Msg("write default config")
			}
		} else if err := loadConfig(filePath, cfg); err != nil {
			log.Error().Err(err).Str("path", filePath).Msg("load config, using defaults")
			cfg = defaultConfig()
		}
		applyEnv(cfg)
		set(cfg)
	})
	return Get()
}

// loadConfig loads the settings from the file
func loadConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}
	validate(cfg)
	return nil
}

// validate 把文件里不合法的尺寸恢复为默认值
func validate(cfg *AppConfig) {
	defaults := defaultConfig()
	if cfg.Blocksize <= 0 {
		log.Warn().Int("blocksize", cfg.Blocksize).Msg("ignoring invalid blocksize")
		cfg.Blocksize = defaults.Blocksize
	}
	if cfg.TileCount <= 0 {
		log.Warn().Int("tilecount", cfg.TileCount).Msg("ignoring invalid tilecount")
		cfg.TileCount = defaults.TileCount
	}
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("SNAKE_SELFPATH"); v != "" {
		cfg.SelfPath = v
	}
	if v := os.Getenv("SNAKE_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("SNAKE_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("SNAKE_SKINDIR"); v != "" {
		cfg.SkinDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	for env, dst := range map[string]*int{
		"SNAKE_BLOCKSIZE": &cfg.Blocksize,
		"SNAKE_TILECOUNT": &cfg.TileCount,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Warn().Str("env", env).Str("value", v).Msg("ignoring invalid integer")
			continue
		}
		*dst = n
	}
}

func set(cfg *AppConfig) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}

// Get returns a copy of the current configuration, or the defaults when
// nothing has been loaded yet.
func Get() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return defaultConfig()
	}
	cfg := *instance
	return &cfg
}

// reload re-reads filePath on top of the defaults and environment.
func reload(filePath string) error {
	cfg := defaultConfig()
	if err := loadConfig(filePath, cfg); err != nil {
		return err
	}
	applyEnv(cfg)
	set(cfg)
	return nil
}

// WatchConfig reloads the configuration whenever filePath is written,
// until ctx is done. Blocksize applies to the next rendered frame and
// tilecount to the next session.
func WatchConfig(ctx context.Context, filePath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// 监听所在目录，编辑器保存时常常是替换文件
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		return err
	}
	target := filepath.Clean(filePath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if err := reload(filePath); err != nil {
					log.Warn().Err(err).Str("path", filePath).Msg("config reload failed, keeping previous")
					continue
				}
				log.Info().Str("path", filePath).Msg("config reloaded")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("config watcher")
		}
	}
}

// GetConfigValue returns the value of the configuration by key
func GetConfigValue(key string) interface{} {
	cfg := Get()
	switch key {
	case "selfpath":
		return cfg.SelfPath
	case "port":
		return cfg.Port
	case "blocksize":
		return cfg.Blocksize
	case "tilecount":
		return cfg.TileCount
	case "database":
		return cfg.Database
	case "skindir":
		return cfg.SkinDir
	case "loglevel":
		return cfg.LogLevel
	default:
		return ""
	}
}
