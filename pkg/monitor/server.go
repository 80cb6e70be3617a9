package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fansync/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type Server struct {
	srv  *http.Server
	port int
}

func NewServer(cfg *Config, m *Monitor) *Server {
	server := &Server{
		port: cfg.Port,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.Default()

	InitRouter(engine, m)
	server.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", server.port),
		Handler: engine,
	}

	return server
}

// InitRouter 初始化路由配置
func InitRouter(engine *gin.Engine, m *Monitor) *gin.RouterGroup {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.POST("/webhook/event", m.HandleEvent)

	apiGroup := engine.Group("/api/v1")
	{
		apiGroup.POST("/tasks/:name/run", m.RunTaskHandler)
		apiGroup.GET("/runs", m.RunsHandler)
		zap.S().Info("路由注册成功: POST /webhook/event, POST /api/v1/tasks/:name/run, GET /api/v1/runs")
	}
	return apiGroup
}

func (srv *Server) Run() error {
	err := srv.srv.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			zap.S().Debugf("http server[:%d] 已经关闭...", srv.port)
			return nil
		}
		return err
	}
	return nil
}

func (srv *Server) GracefulShutdown(ctx context.Context) error {
	c, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := srv.srv.Shutdown(c); err != nil {
		zap.S().Errorf("http server 关闭错误:%s", err.Error())
		return err
	}
	return nil
}

// 事件订阅回调的载荷结构，兼容 URL 校验与消息事件两种形态
type eventPayload struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Token     string `json:"token"`
	Header    struct {
		EventType string `json:"event_type"`
		Token     string `json:"token"`
	} `json:"header"`
	Event struct {
		Message struct {
			ChatID      string `json:"chat_id"`
			MessageType string `json:"message_type"`
			Content     string `json:"content"`
			Mentions    []struct {
				Name string `json:"name"`
				ID   struct {
					OpenID string `json:"open_id"`
				} `json:"id"`
			} `json:"mentions"`
		} `json:"message"`
	} `json:"event"`
}

// HandleEvent 处理事件订阅回调：URL 校验直接回显 challenge，
// 消息事件校验 @ 机器人后按关键词分发任务
func (m *Monitor) HandleEvent(c *gin.Context) {
	var payload eventPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		util.Err(c, gin.H{"error": "无效的事件载荷", "code": http.StatusBadRequest})
		return
	}

	if payload.Type == "url_verification" {
		c.JSON(http.StatusOK, gin.H{"challenge": payload.Challenge})
		return
	}

	if m.cfg.VerificationToken != "" {
		token := payload.Header.Token
		if token == "" {
			token = payload.Token
		}
		if token != m.cfg.VerificationToken {
			util.Err(c, gin.H{"error": "事件校验失败", "code": http.StatusForbidden})
			return
		}
	}

	if payload.Header.EventType != "im.message.receive_v1" {
		util.Ok(c, gin.H{"ignored": payload.Header.EventType})
		return
	}

	message := payload.Event.Message
	zap.S().Infof("🎯 收到消息事件！chat_id=%s type=%s", message.ChatID, message.MessageType)

	botMentioned := false
	for _, mention := range message.Mentions {
		if m.cfg.BotOpenID == "" || mention.ID.OpenID == m.cfg.BotOpenID {
			botMentioned = true
			break
		}
	}
	if !botMentioned {
		zap.S().Info("❌ 未检测到@机器人")
		util.Ok(c, gin.H{"dispatched": false})
		return
	}

	text := extractMessageText(message.Content)
	zap.S().Infof("解析后的消息文本: %s", text)
	m.DispatchMessage(context.Background(), text, message.ChatID)
	util.Ok(c, gin.H{"dispatched": true})
}

// extractMessageText 文本消息的 content 是 {"text":"..."} 形式的 JSON，
// @ 占位符（@_user_1 等）在分发前去掉
func extractMessageText(content string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	text := content
	if err := json.Unmarshal([]byte(content), &parsed); err == nil && parsed.Text != "" {
		text = parsed.Text
	}
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(f, "@") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// RunTaskHandler 手动触发任务，异步执行立即返回
func (m *Monitor) RunTaskHandler(c *gin.Context) {
	name := c.Param("name")
	if _, ok := m.cfg.Task(name); !ok {
		util.Err(c, gin.H{"error": fmt.Sprintf("未知任务: %s", name), "code": http.StatusNotFound})
		return
	}
	go m.RunTask(context.Background(), name, "API触发", "")
	util.Ok(c, gin.H{"task": name, "triggered": true})
}

// RunsHandler 查询运行历史
func (m *Monitor) RunsHandler(c *gin.Context) {
	limit := cast.ToInt(c.Query("limit"))
	if limit <= 0 {
		limit = 20
	}
	runs, err := m.RecentRuns(c.Query("task"), limit)
	if err != nil {
		util.Err(c, err)
		return
	}
	util.Ok(c, gin.H{"items": runs, "count": len(runs)})
}
