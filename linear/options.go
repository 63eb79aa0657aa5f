package linear

import (
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

const (
	// DefaultLearningRate は勾配降下法のデフォルト学習率
	DefaultLearningRate = 0.01
	// DefaultEpochs はデフォルトのエポック数
	DefaultEpochs = 10000
	// DefaultLogEvery はコスト履歴を記録するエポック間隔
	DefaultLogEvery = 100
)

// Config は一対他ロジスティック回帰の学習設定
type Config struct {
	// LearningRate は勾配の更新幅
	LearningRate float64

	// Epochs は全データを走査する回数
	Epochs int

	// BatchSize はミニバッチの行数。0または行数以上ならフルバッチ、1なら確率的勾配降下法。
	BatchSize int

	// LogEvery エポックごとにコストを計算して履歴に残す。0なら最初と最後のみ。
	LogEvery int

	// Parallel が真ならクラスごとの分類器を並列に学習する（結果は逐次と同一）
	Parallel bool

	// Workers は並列学習のゴルーチン数。0ならCPU数。
	Workers int

	// Logger は学習経過の出力先。nilならパッケージのロガー。
	Logger log.Logger
}

// DefaultConfig はデフォルトの学習設定を返す
func DefaultConfig() Config {
	return Config{
		LearningRate: DefaultLearningRate,
		Epochs:       DefaultEpochs,
		LogEvery:     DefaultLogEvery,
	}
}

// Validate は学習設定を検証する
func (c Config) Validate() error {
	if !(c.LearningRate > 0) {
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	}
	if c.Epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", c.Epochs)
	}
	if c.BatchSize < 0 {
		return errors.NewValidationError("batch_size", "must be zero (full batch) or positive", c.BatchSize)
	}
	if c.LogEvery < 0 {
		return errors.NewValidationError("log_every", "must not be negative", c.LogEvery)
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", "must not be negative", c.Workers)
	}
	return nil
}

// batchSizeFor は行数nに対する実際のバッチサイズを返す
func (c Config) batchSizeFor(n int) int {
	if c.BatchSize <= 0 || c.BatchSize > n {
		return n
	}
	return c.BatchSize
}

func (c Config) logger() log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.GetLoggerWithName("linear")
}

// Option はConfigを変更する関数
type Option func(*Config)

// WithLearningRate は学習率を設定する
func WithLearningRate(lr float64) Option {
	return func(c *Config) {
		c.LearningRate = lr
	}
}

// WithEpochs はエポック数を設定する
func WithEpochs(epochs int) Option {
	return func(c *Config) {
		c.Epochs = epochs
	}
}

// WithBatchSize はミニバッチの行数を設定する
func WithBatchSize(size int) Option {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithLogEvery はコスト履歴の記録間隔を設定する
func WithLogEvery(every int) Option {
	return func(c *Config) {
		c.LogEvery = every
	}
}

// WithParallel はクラスごとの並列学習を有効にする
func WithParallel(workers int) Option {
	return func(c *Config) {
		c.Parallel = true
		c.Workers = workers
	}
}

// WithLogger は学習経過のロガーを設定する
func WithLogger(l log.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithConfig は設定全体を置き換える
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}
