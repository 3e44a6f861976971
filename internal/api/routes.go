package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/rawblock/privacypool/internal/db"
	"github.com/rawblock/privacypool/internal/pool"
	"github.com/rawblock/privacypool/internal/relayer"
	"github.com/rawblock/privacypool/internal/safety"
)

// APIHandler wires the pool client, relayer sweeper, and safety policy into
// the REST surface spec.md §4.K / SPEC_FULL.md describe.
type APIHandler struct {
	dbStore      *db.PostgresStore
	poolClient   *pool.Client
	sweeper      *relayer.Sweeper
	safetyPolicy *safety.Policy
	wsHub        *Hub
}

// poolActionLimiter caps how often a single IP can hit the authenticated
// pool-action routes (deposit/withdraw draft building, sweep triggers). It
// guards the HTTP surface itself and is independent of the safety policy's
// own per-action rate limit, which governs on-chain spend rather than
// request volume.
type poolActionLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newPoolActionLimiter(ratePerMin, burst int) *poolActionLimiter {
	return &poolActionLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(ratePerMin) / 60.0),
		burst:    burst,
	}
}

func (l *poolActionLimiter) forIP(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

// Middleware returns a gin handler that enforces the per-IP limit using
// golang.org/x/time/rate's token-bucket Limiter.
func (l *poolActionLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.forIP(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded for pool-action routes",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetupRouter builds the gin engine exposing pool discovery, health
// evaluation, deposit/withdrawal draft construction, relayer control, and
// the live sweep event stream.
func SetupRouter(dbStore *db.PostgresStore, poolClient *pool.Client, sweeper *relayer.Sweeper, policy *safety.Policy, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		dbStore:      dbStore,
		poolClient:   poolClient,
		sweeper:      sweeper,
		safetyPolicy: policy,
		wsHub:        wsHub,
	}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
		pub.GET("/pools", handler.handleListPools)
		pub.GET("/pools/:id/health", handler.handlePoolHealth)
		pub.GET("/pools/:id/sweeps", handler.handleSweepHistory)
		pub.GET("/safety/status", handler.handleSafetyStatus)
	}

	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	auth.Use(newPoolActionLimiter(30, 5).Middleware())
	{
		auth.POST("/pools/:id/deposit", handler.handleBuildDeposit)
		auth.POST("/pools/:id/withdraw", handler.handleBuildWithdrawal)
		auth.POST("/relayer/sweep", handler.handleTriggerSweep)
	}

	r.Static("/dashboard", "./public")

	return r
}

// handleHealth reports engine status and the live capability set.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "RawBlock Privacy Pool Relayer",
		"capabilities": gin.H{
			"ringSignatures":   true,
			"nullifierTracking": true,
			"depositBatching":  true,
			"withdrawalSweeps": true,
			"safetyGuardrails": true,
		},
		"dbConnected": h.dbStore != nil,
	})
}

// handleListPools scans live pool boxes for the requested denomination
// (query param "denomination"; 0 or absent scans every denomination the
// node reports).
func (h *APIHandler) handleListPools(c *gin.Context) {
	denom, _ := strconv.ParseInt(c.DefaultQuery("denomination", "0"), 10, 64)

	summaries, err := h.poolClient.ListPools(c.Request.Context(), denom)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to scan pools", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pools": summaries})
}

// handlePoolHealth runs evaluate_pool_health for a single pool id.
func (h *APIHandler) handlePoolHealth(c *gin.Context) {
	report, err := h.poolClient.EvaluatePoolHealth(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to evaluate pool health", "details": err.Error()})
		return
	}
	if h.dbStore != nil {
		_ = h.dbStore.SavePoolSnapshot(c.Request.Context(), report)
	}
	c.JSON(http.StatusOK, report)
}

// handleBuildDeposit drafts an unsigned deposit transaction for a single
// stealth key. POST body: {"stealthKeyHex": "..."}
func (h *APIHandler) handleBuildDeposit(c *gin.Context) {
	var req struct {
		StealthKeyHex string `json:"stealthKeyHex"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	draft, err := h.poolClient.BuildDeposit(c.Request.Context(), c.Param("id"), req.StealthKeyHex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to build deposit", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, draft)
}

// handleBuildWithdrawal drafts an unsigned withdrawal transaction proving
// membership via the ring-signature Sigma protocol. POST body:
// {"secretHex": "...", "recipientErgoTree": "..."}
func (h *APIHandler) handleBuildWithdrawal(c *gin.Context) {
	var req struct {
		SecretHex         string `json:"secretHex"`
		RecipientErgoTree string `json:"recipientErgoTree"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if h.safetyPolicy != nil {
		if err := h.safetyPolicy.ValidateRateLimit(); err != nil {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
	}

	draft, err := h.poolClient.BuildWithdrawal(c.Request.Context(), c.Param("id"), req.SecretHex, req.RecipientErgoTree)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to build withdrawal", "details": err.Error()})
		return
	}

	if h.safetyPolicy != nil {
		var amount int64
		for _, out := range draft.Tx.Outputs {
			if out.ErgoTree == req.RecipientErgoTree {
				amount = out.Value
				break
			}
		}
		if err := h.safetyPolicy.ValidateSend(amount, req.RecipientErgoTree); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		h.safetyPolicy.RecordAction(amount)
	}

	c.JSON(http.StatusOK, draft)
}

// handleTriggerSweep forces an immediate relayer tick instead of waiting
// for the next ticker fire, useful for operator-triggered catch-up sweeps.
func (h *APIHandler) handleTriggerSweep(c *gin.Context) {
	if h.sweeper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "relayer not configured"})
		return
	}
	h.sweeper.Tick(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "sweep_triggered"})
}

// handleSweepHistory returns the recent audit log for one pool.
func (h *APIHandler) handleSweepHistory(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := h.dbStore.SweepHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sweep history", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sweeps": history})
}

// handleSafetyStatus exposes the guardrail policy's current spend/rate
// state for operator dashboards.
func (h *APIHandler) handleSafetyStatus(c *gin.Context) {
	if h.safetyPolicy == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "safety policy not configured"})
		return
	}
	c.JSON(http.StatusOK, h.safetyPolicy.Status())
}
