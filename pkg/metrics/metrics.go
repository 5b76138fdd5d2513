// Package metrics 基于Prometheus的指标定义
//
// 指标分三类：
//   - HTTP：请求数、耗时、处理中请求数（由中间件记录）
//   - 业务：借阅/归还、登录、作者创建（含按姓名自动创建）
//   - 基础设施：熔断器状态、Saga执行与补偿、事件发布
//
// 使用方式：
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//	metrics.ObserveLoan(metrics.LoanBorrow, err)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 借阅动作标签值
const (
	LoanBorrow = "borrow"
	LoanReturn = "return"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板，如/books/:id）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// LoansTotal 借阅/归还次数
	// 标签：action（borrow/return）、result（success/failure）
	LoansTotal *prometheus.CounterVec

	// BooksOnLoan 当前借出中的图书数（借出+1，归还-1，启动时不回填）
	BooksOnLoan prometheus.Gauge

	// LoginsTotal 登录次数，标签：result（success/failure）
	LoginsTotal *prometheus.CounterVec

	// AuthorsCreatedTotal 作者创建数（显式创建与图书引用时自动创建）
	AuthorsCreatedTotal prometheus.Counter

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// SagaExecutionsTotal Saga执行次数，标签：name、result
	SagaExecutionsTotal *prometheus.CounterVec

	// MessagesPublishedTotal 事件发布次数
	// 标签：exchange、routing_key、result
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 注册全部指标到默认Registry（可重复调用）
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		})

		LoansTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_loans_total",
				Help: "借阅/归还次数",
			},
			[]string{"action", "result"},
		)

		BooksOnLoan = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "library_books_on_loan",
			Help: "本进程启动以来净借出的图书数",
		})

		LoginsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_logins_total",
				Help: "登录次数",
			},
			[]string{"result"},
		)

		AuthorsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "library_authors_created_total",
			Help: "作者创建数",
		})

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
			},
			[]string{"name"},
		)

		SagaExecutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saga_executions_total",
				Help: "Saga执行次数",
			},
			[]string{"name", "result"},
		)

		MessagesPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_published_total",
				Help: "事件发布次数",
			},
			[]string{"exchange", "routing_key", "result"},
		)
	})
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveLoan 记录一次借阅或归还
func ObserveLoan(action string, err error) {
	InitMetrics()
	LoansTotal.WithLabelValues(action, result(err)).Inc()
	if err != nil {
		return
	}
	switch action {
	case LoanBorrow:
		BooksOnLoan.Inc()
	case LoanReturn:
		BooksOnLoan.Dec()
	}
}

// ObserveLogin 记录一次登录
func ObserveLogin(err error) {
	InitMetrics()
	LoginsTotal.WithLabelValues(result(err)).Inc()
}

// IncAuthorsCreated 作者创建数+1
func IncAuthorsCreated() {
	InitMetrics()
	AuthorsCreatedTotal.Inc()
}

// SetCircuitBreakerState 更新熔断器状态
func SetCircuitBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// ObserveSaga 记录一次Saga执行
func ObserveSaga(name string, err error) {
	InitMetrics()
	SagaExecutionsTotal.WithLabelValues(name, result(err)).Inc()
}

// ObservePublish 记录一次事件发布
func ObservePublish(exchange, routingKey string, err error) {
	InitMetrics()
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey, result(err)).Inc()
}
