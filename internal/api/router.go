package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/LJTian/NewsPulse/internal/collector"
	"github.com/LJTian/NewsPulse/internal/hub"
	"github.com/LJTian/NewsPulse/internal/scheduler"
	"github.com/LJTian/NewsPulse/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const adminTokenHeader = "X-Admin-Token"

type Server struct {
	store      *storage.Store
	hub        *hub.Hub
	sched      *scheduler.Scheduler
	adminToken string
}

func NewServer(store *storage.Store, h *hub.Hub, sched *scheduler.Scheduler, adminToken string) *Server {
	return &Server{
		store:      store,
		hub:        h,
		sched:      sched,
		adminToken: adminToken,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/ws", s.serveWS)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.listLatest)
		v1.GET("/news/search", s.search)
		v1.GET("/news/topic/:topic", s.listByTopic)
		v1.GET("/topics", s.listTopics)
	}

	admin := v1.Group("/admin", s.adminAuth())
	{
		admin.POST("/news/:id/deactivate", s.deactivate)
		admin.POST("/news/:id/activate", s.activate)
		admin.POST("/retention/run", s.runRetention)
		admin.POST("/collect/run", s.runCollect)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": s.hub.ClientCount()})
}

func (s *Server) serveWS(c *gin.Context) {
	s.hub.ServeWS(c.Writer, c.Request)
}

func (s *Server) listLatest(c *gin.Context) {
	limit, offset := pageParams(c)
	items, err := s.store.Latest(limit, offset)
	if err != nil {
		internalError(c)
		return
	}
	okList(c, items)
}

func (s *Server) listByTopic(c *gin.Context) {
	topic := c.Param("topic")
	if !collector.IsValidTopic(topic) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_topic",
			"message": "unknown topic: " + topic,
		})
		return
	}

	limit, offset := pageParams(c)
	items, err := s.store.ByTopic(topic, limit, offset)
	if err != nil {
		internalError(c)
		return
	}
	okList(c, items)
}

func (s *Server) search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "missing_query",
			"message": "query parameter q is required",
		})
		return
	}

	limit, offset := pageParams(c)
	items, err := s.store.Search(q, limit, offset)
	if err != nil {
		internalError(c)
		return
	}
	okList(c, items)
}

func (s *Server) listTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    collector.Topics,
	})
}

func (s *Server) deactivate(c *gin.Context) {
	s.setActive(c, false)
}

func (s *Server) activate(c *gin.Context) {
	s.setActive(c, true)
}

func (s *Server) setActive(c *gin.Context, active bool) {
	id := c.Param("id")
	if err := s.store.SetActive(id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "not_found",
				"message": "article not found",
			})
			return
		}
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success"})
}

func (s *Server) runRetention(c *gin.Context) {
	go s.sched.RunRetention()
	c.JSON(http.StatusAccepted, gin.H{"code": "ok", "message": "retention sweep triggered"})
}

func (s *Server) runCollect(c *gin.Context) {
	go s.sched.RunOnce()
	c.JSON(http.StatusAccepted, gin.H{"code": "ok", "message": "collect cycle triggered"})
}

// adminAuth 管理接口的共享密钥校验；未配置密钥时管理接口整体不可用
func (s *Server) adminAuth() gin.HandlerFunc {
	token := []byte(s.adminToken)

	return func(c *gin.Context) {
		if len(token) == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "admin_disabled",
				"message": "admin token not configured",
			})
			return
		}
		got := []byte(c.GetHeader(adminTokenHeader))
		if subtle.ConstantTimeCompare(got, token) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "invalid admin token",
			})
			return
		}
		c.Next()
	}
}

func pageParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func okList(c *gin.Context, items []storage.Article) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
