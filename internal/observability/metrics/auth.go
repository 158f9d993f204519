// Package metrics exposes Prometheus instruments for directory authentication.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	obserrors "github.com/consentforms/consentforms/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Directory operation names.
const (
	OpDial   = "dial"
	OpBind   = "bind"
	OpSearch = "search"
)

// AuthRecorder receives authentication telemetry.
type AuthRecorder interface {
	LoginAttempt(result string, err error, d time.Duration)
	DirectoryOp(op string, err error, d time.Duration)
	ConnectionTest(success bool, insecure bool)
	GatekeeperDecision(decision string)
}

// Noop discards all telemetry.
type Noop struct{}

func (Noop) LoginAttempt(string, error, time.Duration) {}
func (Noop) DirectoryOp(string, error, time.Duration)  {}
func (Noop) ConnectionTest(bool, bool)                 {}
func (Noop) GatekeeperDecision(string)                 {}

// Auth holds the Prometheus collectors.
type Auth struct {
	LoginAttempts      *prometheus.CounterVec
	LoginDuration      *prometheus.HistogramVec
	DirectoryOps       *prometheus.CounterVec
	DirectoryDuration  *prometheus.HistogramVec
	ConnectionTests    *prometheus.CounterVec
	GatekeeperOutcomes *prometheus.CounterVec
	SetupMode          prometheus.Gauge
}

var _ AuthRecorder = (*Auth)(nil)

// NewAuth registers the authentication collectors with reg.
func NewAuth(reg prometheus.Registerer) *Auth {
	f := promauto.With(reg)
	return &Auth{
		// Labels:
		//   - result: "success", "failure" (user-facing rejection), "error" (infrastructure)
		//   - error_class: AppError code, empty on success
		LoginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consentforms_login_attempts_total",
				Help: "Total number of directory login attempts",
			},
			[]string{"result", "error_class"},
		),
		LoginDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "consentforms_login_duration_seconds",
				Help:    "Duration of authenticate-and-authorise calls in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"result"},
		),
		DirectoryOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consentforms_directory_operations_total",
				Help: "Total number of directory dial, bind, and search operations",
			},
			[]string{"op", "result", "error_class"},
		),
		DirectoryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "consentforms_directory_operation_duration_seconds",
				Help:    "Latency of individual directory operations",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 7},
			},
			[]string{"op"},
		),
		// Labels:
		//   - result: "success", "failure"
		//   - tls: "verified", "insecure"
		ConnectionTests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consentforms_directory_connection_tests_total",
				Help: "Total number of administrator connection tests",
			},
			[]string{"result", "tls"},
		),
		GatekeeperOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consentforms_gatekeeper_decisions_total",
				Help: "Inbound request authorization decisions",
			},
			[]string{"decision"},
		),
		SetupMode: f.NewGauge(prometheus.GaugeOpts{
			Name: "consentforms_setup_mode",
			Help: "1 while access control is bypassed because no full-access group is configured",
		}),
	}
}

func (m *Auth) LoginAttempt(result string, err error, d time.Duration) {
	m.LoginAttempts.WithLabelValues(result, obserrors.Classify(err)).Inc()
	m.LoginDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Auth) DirectoryOp(op string, err error, d time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.DirectoryOps.WithLabelValues(op, result, obserrors.Classify(err)).Inc()
	m.DirectoryDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Auth) ConnectionTest(success bool, insecure bool) {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}
	tls := "verified"
	if insecure {
		tls = "insecure"
	}
	m.ConnectionTests.WithLabelValues(result, tls).Inc()
}

func (m *Auth) GatekeeperDecision(decision string) {
	m.GatekeeperOutcomes.WithLabelValues(decision).Inc()
}

// SetSetupMode records whether the application currently runs in setup mode.
func (m *Auth) SetSetupMode(active bool) {
	if active {
		m.SetupMode.Set(1)
		return
	}
	m.SetupMode.Set(0)
}
