package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	appointmentsBooked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointments_booked_total",
			Help: "Total number of appointments booked",
		},
		[]string{"doctor"},
	)

	bookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Total number of bookings rejected because the slot was taken",
		},
	)

	appointmentStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_status_changed_total",
			Help: "Total number of appointment status changes",
		},
		[]string{"from_status", "to_status"},
	)

	paymentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Total number of payments recorded",
		},
		[]string{"method", "status"},
	)

	reportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Total number of financial reports generated",
		},
		[]string{"report"},
	)

	recurringExpensesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recurring_expenses_generated_total",
			Help: "Total number of expense rows created by the recurrence generator",
		},
	)

	installmentsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "installments_generated_total",
			Help: "Total number of installment payments created",
		},
	)

	auditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries created",
		},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordAppointmentBooked records a successful booking
func RecordAppointmentBooked(doctor string) {
	appointmentsBooked.WithLabelValues(doctor).Inc()
}

// RecordBookingConflict records a booking rejected due to a slot collision
func RecordBookingConflict() {
	bookingConflicts.Inc()
}

// RecordAppointmentStatusChange records an appointment status transition
func RecordAppointmentStatusChange(fromStatus, toStatus string) {
	appointmentStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordPayment records a payment creation
func RecordPayment(method, status string) {
	paymentsRecorded.WithLabelValues(method, status).Inc()
}

// RecordReport records a generated financial report
func RecordReport(report string) {
	reportsGenerated.WithLabelValues(report).Inc()
}

// RecordRecurringExpenses records rows created by the expense recurrence generator
func RecordRecurringExpenses(count int) {
	recurringExpensesGenerated.Add(float64(count))
}

// RecordInstallments records rows created by the installment generator
func RecordInstallments(count int) {
	installmentsGenerated.Add(float64(count))
}

// RecordAuditEntry records an audit entry creation
func RecordAuditEntry() {
	auditEntriesTotal.Inc()
}

// RecordDBConnections records active database connections
func RecordDBConnections(count int) {
	dbConnectionsActive.Set(float64(count))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
