// Package status runs the ambient HTTP debug/introspection endpoint
// for a hashboard: health, lifecycle state, per-chain counters, and
// host metrics. It is not the pool-facing CGMiner API; this is an
// operator-facing surface only.
package status

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/braiins-s9/hashboard-core/internal/hostmetrics"
	"github.com/braiins-s9/hashboard-core/internal/lifecycle"
	"github.com/braiins-s9/hashboard-core/internal/logx"
	"github.com/braiins-s9/hashboard-core/internal/stats"
)

// ChainView is whatever one monitored hashchain exposes to the status
// server; internal/hashchain.Chain satisfies it.
type ChainView interface {
	Name() string
	Status() lifecycle.Status
	Counters() *stats.ChainCounters
	HashrateHz() float64
	Summary() stats.Summary
}

// Server is the gin-backed debug endpoint for one board's hashchains.
type Server struct {
	router    *gin.Engine
	chains    []ChainView
	startTime time.Time
	log       *logx.Logger
}

// NewServer builds a Server over the given chains. Chains are read
// each request (no caching), since this endpoint is for humans and
// the occasional monitoring scrape, not a hot path.
func NewServer(chains []ChainView, log *logx.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{router: router, chains: chains, startTime: time.Now(), log: log}
	router.GET("/healthz", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.GET("/metrics/host", s.handleHostMetrics)
	return s
}

// Handler exposes the underlying http.Handler for embedding in an
// *http.Server, so callers control listen address and TLS
// configuration.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	overall := "healthy"
	for _, chain := range s.chains {
		switch chain.Status() {
		case lifecycle.Failed, lifecycle.Failing:
			overall = "degraded"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": overall,
		"uptime": time.Since(s.startTime).String(),
		"chains": len(s.chains),
	})
}

type chainStatusView struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	Summary stats.Summary `json:"summary"`
}

func (s *Server) handleStatus(c *gin.Context) {
	views := make([]chainStatusView, 0, len(s.chains))
	for _, chain := range s.chains {
		views = append(views, chainStatusView{
			Name:    chain.Name(),
			Status:  chain.Status().String(),
			Summary: chain.Summary(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"chains": views})
}

func (s *Server) handleHostMetrics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	snapshot, err := hostmetrics.Sample(ctx)
	if err != nil {
		s.log.Warnf("host metrics sample failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
