package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetryRecords(t *testing.T) {
	tel := NewWithRegistry(prometheus.NewRegistry())

	tel.RecordEpochs(100)
	tel.RecordEpochs(50)
	tel.RecordEpochs(0)
	assert.Equal(t, 150.0, testutil.ToFloat64(tel.EpochsTotal))

	tel.SetFinalLoss("Ravenclaw", 0.125)
	assert.Equal(t, 0.125, testutil.ToFloat64(tel.FinalLoss.WithLabelValues("Ravenclaw")))

	tel.SetAccuracy(0.98)
	assert.Equal(t, 0.98, testutil.ToFloat64(tel.TrainingAccuracy))

	tel.RecordPredictions([]string{"Slytherin", "Slytherin", "Gryffindor"})
	assert.Equal(t, 2.0, testutil.ToFloat64(tel.PredictionsTotal.WithLabelValues("Slytherin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.PredictionsTotal.WithLabelValues("Gryffindor")))

	tel.ObserveTraining(1500 * time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(tel.TrainingDuration))
}

func TestNilTelemetryIsNoop(t *testing.T) {
	var tel *Telemetry

	assert.NotPanics(t, func() {
		tel.RecordEpochs(10)
		tel.SetFinalLoss("Hufflepuff", 1)
		tel.SetAccuracy(1)
		tel.ObserveTraining(time.Second)
		tel.RecordPredictions([]string{"Hufflepuff"})
	})
	assert.Nil(t, tel.Registry())
	assert.Error(t, tel.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestWriteTextfile(t *testing.T) {
	tel := New()
	tel.RecordEpochs(4)
	tel.SetFinalLoss("Gryffindor", 0.5)

	path := filepath.Join(t.TempDir(), "dslr.prom")
	require.NoError(t, tel.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "dslr_training_epochs_total 4"), text)
	assert.True(t, strings.Contains(text, `dslr_training_final_loss{house="Gryffindor"} 0.5`), text)
}
