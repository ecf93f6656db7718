package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-inside-out/config"
	"github.com/hoshinonyaruko/snake-inside-out/memimg"
	"github.com/hoshinonyaruko/snake-inside-out/render"
	"github.com/hoshinonyaruko/snake-inside-out/session"
	"github.com/hoshinonyaruko/snake-inside-out/snake"
	"github.com/hoshinonyaruko/snake-inside-out/sqlite"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// 客户端通过 websocket 发来的消息
type streamMessage struct {
	Direction string `json:"direction"`
}

func InitDB(dsn string) (*sql.DB, error) {
	return sqlite.Open(dsn)
}

// NewRouter 注册全部路由
func NewRouter(m *session.Manager) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	// 开局或重开
	router.GET("/start-game", StartGame(m))
	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(m))
	// 当前状态
	router.GET("/game-state", GameState(m))
	// 渲染函数 返回PNG
	router.GET("/render-map", RenderMapHandler(m))
	// 实时推送每一帧
	router.GET("/game-stream", GameStream(m))
	// 删除会话
	router.GET("/delete-game", DeleteGameHandler(m))
	// 登记表
	router.GET("/games", ListGames(m))
	return router
}

// RequestLogger logs one line per request through zerolog.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// abortWithError 把已知错误映射为状态码
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, snake.ErrInvalidDifficulty), errors.Is(err, snake.ErrBoardTooSmall):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func lookupSession(c *gin.Context, m *session.Manager) (*session.Session, bool) {
	id := c.Query("session")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: session"})
		return nil, false
	}
	s, err := m.Get(id)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return s, true
}

// StartGame 没有 session 参数时新建会话，否则重开该会话。
func StartGame(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		difficulty := c.DefaultQuery("difficulty", "normal")
		id := c.Query("session")

		var (
			s   *session.Session
			err error
		)
		if id == "" {
			s, err = m.Create(difficulty)
		} else {
			s, err = m.Restart(id, difficulty)
		}
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session":        s.ID,
			"tickIntervalMs": s.Difficulty().TickInterval.Milliseconds(),
			"stream":         fmt.Sprintf("ws://%s/game-stream?session=%s", config.GetConfigValue("selfpath").(string), s.ID),
			"frame":          s.Frame(),
		})
	}
}

func UpdateDirection(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		d, valid := snake.ParseDirection(c.Query("direction"))
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid direction '%s' provided", c.Query("direction"))})
			return
		}
		// 反向的请求被忽略，不算错误
		accepted := s.SetDirection(d)
		c.JSON(http.StatusOK, gin.H{"accepted": accepted, "direction": s.Frame().Direction})
	}
}

func GameState(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.Frame())
	}
}

func RenderMapHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		// 从配置中读取，热更新后下一帧生效
		blockSize := config.GetConfigValue("blocksize").(int)
		c.Header("Content-Type", "image/png")
		c.Header("Cache-Control", "no-store")
		c.Status(http.StatusOK)
		if err := render.WritePNG(c.Writer, s.Frame(), blockSize, memimg.GetSkin); err != nil {
			log.Warn().Err(err).Str("session", s.ID).Msg("render map")
		}
	}
}

// GameStream 每一步推送一帧 JSON；客户端可以发送 {"direction": "up"}。
func GameStream(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, m)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Str("session", s.ID).Msg("websocket upgrade")
			return
		}
		defer conn.Close()

		frames, unsubscribe := s.Subscribe()
		defer unsubscribe()

		// 读取方向
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				var msg streamMessage
				if err := conn.ReadJSON(&msg); err != nil {
					return
				}
				if d, ok := snake.ParseDirection(msg.Direction); ok {
					s.SetDirection(d)
				}
			}
		}()

		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					// 会话被删除
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
						time.Now().Add(time.Second))
					return
				}
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			case <-readDone:
				log.Debug().Str("session", s.ID).Msg("stream client left")
				return
			}
		}
	}
}

func DeleteGameHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("session")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: session"})
			return
		}
		if err := m.Delete(id); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Game deleted successfully"})
	}
}

func ListGames(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := m.Records()
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"games": records})
	}
}
