package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/insightsec/harvestr/internal/eventlog"
	"github.com/insightsec/harvestr/internal/metrics"
	"github.com/insightsec/harvestr/internal/registry"
)

// Router provides a read-only HTTP view of the fleet for operators and
// downstream tooling.
// Endpoints:
//   GET {basePath}/healthz
//   GET {basePath}/status            registry records (tokens withheld)
//   GET {basePath}/events?limit=50   recent well-formed audit events
//   GET {basePath}/ioc/latest?type=phishing_url
//   GET {basePath}/metrics
// basePath may be empty or start with '/'; no trailing slash.

type Router struct {
	store    registry.Store
	reader   *eventlog.Reader
	basePath string
}

func NewRouter(store registry.Store, reader *eventlog.Reader, basePath string) *Router {
	return &Router{store: store, reader: reader, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/healthz", r.handleHealthz)
	group.GET("/status", r.handleStatus)
	group.GET("/events", r.handleEvents)
	group.GET("/ioc/latest", r.handleLatestIOC)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, store registry.Store, reader *eventlog.Reader) (*http.Server, error) {
	r := NewRouter(store, reader, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

type errorResp struct {
	Error string `json:"error"`
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (r *Router) handleStatus(c *gin.Context) {
	recs, err := r.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workers": recs, "count": len(recs)})
}

func (r *Router) handleEvents(c *gin.Context) {
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	events, err := r.reader.Tail(limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (r *Router) handleLatestIOC(c *gin.Context) {
	iocType := c.DefaultQuery("type", "phishing_url")
	value, err := r.reader.LatestIOC(iocType)
	if err != nil {
		if errors.Is(err, eventlog.ErrNoIOC) {
			c.JSON(http.StatusNotFound, errorResp{Error: "no matching ioc"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ioc_type": iocType, "value": value})
}

func sanitizeBase(basePath string) string {
	bp := strings.TrimSpace(basePath)
	if bp == "" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimSuffix(bp, "/")
}
