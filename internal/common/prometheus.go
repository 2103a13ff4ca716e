package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	MissedRecordsTotal         = "missed_records_total"
	SmsCodesIssuedTotal        = "sms_codes_issued_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "code"}),
		MissedRecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MissedRecordsTotal,
			Help: "Count of records the sweeper marked missed",
		}, []string{"rule_type"}),
		SmsCodesIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: SmsCodesIssuedTotal,
			Help: "Count of issued verification codes",
		}, []string{"purpose"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "code"}),
	}
)
