package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoshinonyaruko/snake-inside-out/api"
	"github.com/hoshinonyaruko/snake-inside-out/config"
	"github.com/hoshinonyaruko/snake-inside-out/memimg"
	"github.com/hoshinonyaruko/snake-inside-out/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const configPath = "./config.json"

func main() {
	// Initialize the configuration
	cfg := config.LoadConfig(configPath)
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	EnsureFoldersExist(cfg.SkinDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 载入皮肤到内存，并检测热更新
	if err := memimg.LoadSkins(cfg.SkinDir, cfg.Blocksize); err != nil {
		log.Warn().Err(err).Str("dir", cfg.SkinDir).Msg("load skins")
	}
	go func() {
		if err := memimg.WatchSkins(ctx, cfg.SkinDir, cfg.Blocksize); err != nil {
			log.Warn().Err(err).Msg("skin watcher stopped")
		}
	}()
	go func() {
		if err := config.WatchConfig(ctx, configPath); err != nil {
			log.Warn().Err(err).Msg("config watcher stopped")
		}
	}()

	db, err := api.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	// 棋盘大小从配置读取，修改后下一局生效
	manager := session.NewManager(db, func() int {
		return config.GetConfigValue("tilecount").(int)
	})
	defer manager.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(manager),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Int("tilecount", cfg.TileCount).Msg("starting snake server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist(folders ...string) {
	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			if err := os.MkdirAll(folder, 0755); err != nil {
				log.Fatal().Err(err).Str("dir", folder).Msg("failed to create directory")
			}
			log.Info().Str("dir", folder).Msg("created directory")
		}
	}
}
