package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"macrotrack"
	"macrotrack/resolver"
	"macrotrack/tools"
	"macrotrack/tracker"
)

const requestIDHeader = "X-Request-ID"

// Notifier receives the day's summary when totals are reset.
type Notifier interface {
	NotifySummary(ctx context.Context, summary string) error
}

// Server exposes one user's day over HTTP. All callers share a single
// Session and Tracker, so a new resolve or search from any client supersedes
// the one in flight (which then answers 409).
type Server struct {
	session  *resolver.Session
	parser   tools.Parser
	tracker  *tracker.Tracker
	notifier Notifier
}

type ServerOpts struct {
	Session  *resolver.Session
	Parser   tools.Parser
	Tracker  *tracker.Tracker
	Notifier Notifier
}

func NewServer(opts ServerOpts) *Server {
	t := opts.Tracker
	if t == nil {
		t = tracker.New()
	}
	return &Server{
		session:  opts.Session,
		parser:   opts.Parser,
		tracker:  t,
		notifier: opts.Notifier,
	}
}

// Router wires every API route onto a fresh gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), tracing())

	recipes := r.Group("/api/recipes")
	{
		recipes.POST("/parse", s.parseRecipe)
		recipes.POST("/resolve", s.resolveRecipe)
		recipes.POST("/custom", s.customRecipe)
	}

	r.GET("/api/foods/search", s.searchFoods)

	totals := r.Group("/api/totals")
	{
		totals.GET("", s.getTotals)
		totals.POST("/commit", s.commitItems)
		totals.PUT("/target", s.updateTarget)
		totals.POST("/reset", s.resetTotals)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		slog.Info("HTTP: Request handled",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

func tracing() gin.HandlerFunc {
	tracer := otel.Tracer(macrotrack.TracerNameServer)
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("http.method", c.Request.Method)))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
