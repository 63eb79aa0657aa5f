// Package telemetry は学習と推論のPrometheusメトリクスを集計します。
//
// バッチ処理のためHTTPエンドポイントは持たず、node_exporterのtextfile collector
// 形式でファイルに書き出します。メソッドはnilレシーバでも安全に呼べます。
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

const namespace = "dslr"

// Telemetry は学習・推論のメトリクス一式
type Telemetry struct {
	registry *prometheus.Registry

	EpochsTotal      prometheus.Counter     // 全クラス合計の学習エポック数
	FinalLoss        *prometheus.GaugeVec   // 寮ごとの最終交差エントロピー
	TrainingAccuracy prometheus.Gauge       // 学習データに対する正解率
	TrainingDuration prometheus.Histogram   // 学習にかかった秒数
	PredictionsTotal *prometheus.CounterVec // 寮ごとの予測件数
}

// New は専用のレジストリにメトリクスを登録する
func New() *Telemetry {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する（テスト用）
func NewWithRegistry(registry *prometheus.Registry) *Telemetry {
	factory := promauto.With(registry)
	return &Telemetry{
		registry: registry,
		EpochsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_epochs_total",
			Help:      "Total number of gradient descent epochs run across all classes",
		}),
		FinalLoss: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_final_loss",
			Help:      "Cross-entropy of each one-vs-rest classifier after training",
		}, []string{"house"}),
		TrainingAccuracy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_accuracy",
			Help:      "Accuracy of the trained model on its training set",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Wall time spent fitting the model",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Number of students assigned to each house",
		}, []string{"house"}),
	}
}

// Registry はメトリクスを保持するレジストリを返す
func (t *Telemetry) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

// RecordEpochs は学習したエポック数を加算する
func (t *Telemetry) RecordEpochs(n int) {
	if t == nil || n <= 0 {
		return
	}
	t.EpochsTotal.Add(float64(n))
}

// SetFinalLoss は寮ごとの最終コストを記録する
func (t *Telemetry) SetFinalLoss(house string, loss float64) {
	if t == nil {
		return
	}
	t.FinalLoss.WithLabelValues(house).Set(loss)
}

// SetAccuracy は学習データでの正解率を記録する
func (t *Telemetry) SetAccuracy(acc float64) {
	if t == nil {
		return
	}
	t.TrainingAccuracy.Set(acc)
}

// ObserveTraining は学習時間を記録する
func (t *Telemetry) ObserveTraining(d time.Duration) {
	if t == nil {
		return
	}
	t.TrainingDuration.Observe(d.Seconds())
}

// RecordPredictions は予測した寮名を数える
func (t *Telemetry) RecordPredictions(houses []string) {
	if t == nil {
		return
	}
	for _, h := range houses {
		t.PredictionsTotal.WithLabelValues(h).Inc()
	}
}

// WriteTextfile はメトリクスをtextfile collector形式で書き出す。
// 一時ファイルに書いてからリネームするので途中の状態は残らない。
func (t *Telemetry) WriteTextfile(path string) error {
	if t == nil {
		return errors.New("telemetry is not configured")
	}
	if err := prometheus.WriteToTextfile(path, t.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
