package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics() // 重复调用不会重复注册而panic

	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsInProgress)
	assert.NotNil(t, LoansTotal)
	assert.NotNil(t, CircuitBreakerState)
}

func TestObserveLoan(t *testing.T) {
	InitMetrics()

	borrowOK := counterValue(t, LoansTotal.WithLabelValues(LoanBorrow, "success"))
	returnFail := counterValue(t, LoansTotal.WithLabelValues(LoanReturn, "failure"))
	onLoan := gaugeValue(t, BooksOnLoan)

	ObserveLoan(LoanBorrow, nil)
	ObserveLoan(LoanBorrow, nil)
	ObserveLoan(LoanReturn, errors.New("not borrower"))

	assert.Equal(t, borrowOK+2, counterValue(t, LoansTotal.WithLabelValues(LoanBorrow, "success")))
	assert.Equal(t, returnFail+1, counterValue(t, LoansTotal.WithLabelValues(LoanReturn, "failure")))
	// 失败的归还不影响借出数
	assert.Equal(t, onLoan+2, gaugeValue(t, BooksOnLoan))

	ObserveLoan(LoanReturn, nil)
	assert.Equal(t, onLoan+1, gaugeValue(t, BooksOnLoan))
}

func TestObserveLoginAndAuthors(t *testing.T) {
	InitMetrics()

	before := counterValue(t, LoginsTotal.WithLabelValues("failure"))
	ObserveLogin(errors.New("bad token"))
	assert.Equal(t, before+1, counterValue(t, LoginsTotal.WithLabelValues("failure")))

	authors := counterValue(t, AuthorsCreatedTotal)
	IncAuthorsCreated()
	IncAuthorsCreated()
	assert.Equal(t, authors+2, counterValue(t, AuthorsCreatedTotal))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("google-identity", 1)
	assert.Equal(t, float64(1), gaugeValue(t, CircuitBreakerState.WithLabelValues("google-identity")))

	SetCircuitBreakerState("google-identity", 0)
	assert.Equal(t, float64(0), gaugeValue(t, CircuitBreakerState.WithLabelValues("google-identity")))
}

func TestObserveSagaAndPublish(t *testing.T) {
	InitMetrics()

	before := counterValue(t, SagaExecutionsTotal.WithLabelValues("create-book", "failure"))
	ObserveSaga("create-book", errors.New("db down"))
	assert.Equal(t, before+1, counterValue(t, SagaExecutionsTotal.WithLabelValues("create-book", "failure")))

	pub := counterValue(t, MessagesPublishedTotal.WithLabelValues("library.events", "book.borrowed", "success"))
	ObservePublish("library.events", "book.borrowed", nil)
	assert.Equal(t, pub+1, counterValue(t, MessagesPublishedTotal.WithLabelValues("library.events", "book.borrowed", "success")))
}

func TestHistogram(t *testing.T) {
	InitMetrics()

	h := HTTPRequestDuration.WithLabelValues("GET", "/books/:id")
	h.Observe(0.005)
	h.Observe(0.2)

	var m dto.Metric
	require.NoError(t, h.(prometheus.Metric).Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(2))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}
