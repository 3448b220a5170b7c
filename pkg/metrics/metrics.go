// Package metrics 提供 Prometheus 指标：HTTP、gRPC、定价、outbox 投递
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/wyfcoding/latticepricing/pkg/logger"
)

const namespace = "lattice"

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec
	// gRPC 请求计数
	GRPCRequestsTotal *prometheus.CounterVec
	// gRPC 请求耗时
	GRPCRequestDuration *prometheus.HistogramVec

	// 定价次数，按期权类型、行权方式、结果划分
	PricingTotal *prometheus.CounterVec
	// 定价耗时
	PricingDuration *prometheus.HistogramVec
	// 批量定价规模
	BatchSize prometheus.Histogram
	// 批量定价失败数
	BatchFailures prometheus.Counter
	// outbox 投递结果
	OutboxMessages *prometheus.CounterVec
}

// New 创建指标实例并注册到独立的 registry
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "route"}),
		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "grpc_requests_total",
			Help:        "Total gRPC requests",
			ConstLabels: labels,
		}, []string{"method", "code"}),
		GRPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "grpc_request_duration_seconds",
			Help:        "gRPC request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method"}),
		PricingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pricing_total",
			Help:        "Total option pricing requests by outcome",
			ConstLabels: labels,
		}, []string{"option_type", "exercise_style", "outcome"}),
		PricingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "pricing_duration_seconds",
			Help:        "Option pricing duration in seconds",
			Buckets:     []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			ConstLabels: labels,
		}, []string{"exercise_style"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "pricing_batch_size",
			Help:        "Number of contracts per batch pricing request",
			Buckets:     []float64{1, 5, 10, 25, 50, 100},
			ConstLabels: labels,
		}),
		BatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pricing_batch_failures_total",
			Help:        "Failed contracts across batch pricing requests",
			ConstLabels: labels,
		}),
		OutboxMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "outbox_messages_total",
			Help:        "Outbox delivery attempts by resulting status",
			ConstLabels: labels,
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.PricingTotal,
		m.PricingDuration,
		m.BatchSize,
		m.BatchFailures,
		m.OutboxMessages,
	)
	return m
}

// Registry 指标 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler Prometheus 抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePricing 记录一次定价，errorCode 为空表示成功
func (m *Metrics) ObservePricing(optionType, exerciseStyle string, elapsed time.Duration, errorCode string) {
	outcome := "ok"
	if errorCode != "" {
		outcome = errorCode
	}
	m.PricingTotal.WithLabelValues(label(optionType), label(exerciseStyle), outcome).Inc()
	m.PricingDuration.WithLabelValues(label(exerciseStyle)).Observe(elapsed.Seconds())
}

// ObserveBatch 记录一次批量定价
func (m *Metrics) ObserveBatch(total, failures int) {
	m.BatchSize.Observe(float64(total))
	m.BatchFailures.Add(float64(failures))
}

// ObserveOutbox 记录一次 outbox 投递
func (m *Metrics) ObserveOutbox(status string) {
	m.OutboxMessages.WithLabelValues(status).Inc()
}

// label 限制标签基数，未知输入统一归为 other
func label(v string) string {
	switch v {
	case "CALL", "PUT", "EUROPEAN", "AMERICAN",
		"call", "put", "european", "american":
		return v
	default:
		return "other"
	}
}

// GinMiddleware 记录 HTTP 请求指标，route 使用 gin 的路由模板
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// UnaryServerInterceptor 记录 gRPC 请求指标
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.GRPCRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.GRPCRequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// Serve 在独立端口暴露指标，阻塞直到 ctx 取消
func (m *Metrics) Serve(ctx context.Context, addr, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "Starting Prometheus HTTP server", "addr", addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
