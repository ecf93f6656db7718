// Package memimg keeps tile skins in memory, scaled to the block size.
package memimg

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// 皮肤名：snake.png / head.png / food.png
const (
	SkinSnake = "snake"
	SkinHead  = "head"
	SkinFood  = "food"
)

var (
	skins      = make(map[string]image.Image)
	skinsMutex sync.RWMutex
)

// skinName 取不带扩展名的文件名作为皮肤名，非图片返回空串
func skinName(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// LoadSkins 载入目录下所有皮肤并缩放到 blockSize。目录不存在时不报错。
func LoadSkins(directory string, blockSize int) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil
	}
	loaded := make(map[string]image.Image)
	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := skinName(path)
		if info.IsDir() || name == "" {
			return nil
		}
		img, err := loadSkin(path, blockSize)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping skin")
			return nil
		}
		loaded[name] = img
		return nil
	})
	if err != nil {
		return err
	}

	skinsMutex.Lock()
	skins = loaded
	skinsMutex.Unlock()
	return nil
}

func loadSkin(path string, blockSize int) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return imaging.Fill(img, blockSize, blockSize, imaging.Center, imaging.Lanczos), nil
}

// WatchSkins 监听目录，皮肤被写入或删除时热更新到内存，直到 ctx 结束。
func WatchSkins(ctx context.Context, directory string, blockSize int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(directory); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := skinName(event.Name)
			if name == "" {
				continue
			}
			switch {
			case event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create:
				img, err := loadSkin(event.Name, blockSize)
				if err != nil {
					// 文件可能还没写完，等下一次写事件
					continue
				}
				skinsMutex.Lock()
				skins[name] = img
				skinsMutex.Unlock()
				log.Info().Str("skin", name).Msg("skin reloaded")
			case event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename:
				skinsMutex.Lock()
				delete(skins, name)
				skinsMutex.Unlock()
				log.Info().Str("skin", name).Msg("skin removed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("skin watcher")
		}
	}
}

// GetSkin returns the skin registered under name.
func GetSkin(name string) (image.Image, bool) {
	skinsMutex.RLock()
	img, exists := skins[name]
	skinsMutex.RUnlock()
	return img, exists
}

// Reset drops every loaded skin.
func Reset() {
	skinsMutex.Lock()
	skins = make(map[string]image.Image)
	skinsMutex.Unlock()
}
