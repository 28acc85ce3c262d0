package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 是引擎的 Prometheus 指标。
//
//	bookrec_train_total{result}                 训练次数（ok / error）
//	bookrec_train_duration_seconds              训练耗时
//	bookrec_model_version                       当前模型版本
//	bookrec_model_size{dimension}               users / books / ratings / vocabulary
//	bookrec_requests_total{scene,result}        查询次数（ok / empty / error）
//	bookrec_request_duration_seconds{scene}     查询耗时
type Metrics struct {
	TrainTotal      *prometheus.CounterVec
	TrainDuration   prometheus.Histogram
	ModelVersion    prometheus.Gauge
	ModelSize       *prometheus.GaugeVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics 在 reg 上注册指标；reg 为 nil 时只创建不注册（测试 / 多实例）。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TrainTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookrec_train_total",
				Help: "Total number of training passes",
			},
			[]string{"result"},
		),
		TrainDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bookrec_train_duration_seconds",
				Help:    "Duration of training passes in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
			},
		),
		ModelVersion: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "bookrec_model_version",
				Help: "Version of the model currently serving queries",
			},
		),
		ModelSize: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bookrec_model_size",
				Help: "Size of the current model by dimension",
			},
			[]string{"dimension"},
		),
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookrec_requests_total",
				Help: "Total number of recommendation queries",
			},
			[]string{"scene", "result"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookrec_request_duration_seconds",
				Help:    "Duration of recommendation queries in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"scene"},
		),
	}
}

func (m *Metrics) observeModel(model *Model) {
	if m == nil || model == nil {
		return
	}
	m.ModelVersion.Set(float64(model.Version))
	m.ModelSize.WithLabelValues("users").Set(float64(model.ratings.Users()))
	m.ModelSize.WithLabelValues("books").Set(float64(len(model.itemIDs)))
	m.ModelSize.WithLabelValues("ratings").Set(float64(model.RatingCount))
	m.ModelSize.WithLabelValues("vocabulary").Set(float64(len(model.vocabulary)))
}

func (m *Metrics) observeRequest(scene string, seconds float64, n int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case n == 0:
		result = "empty"
	}
	m.RequestsTotal.WithLabelValues(scene, result).Inc()
	m.RequestDuration.WithLabelValues(scene).Observe(seconds)
}
