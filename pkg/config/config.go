// Package config は学習CLIの設定を読み込みます。
//
// 優先順位は 既定値 < YAMLファイル < 環境変数（DSLR_*）です。
// .env ファイルがあれば先に環境変数として読み込みます（既存の値は上書きしません）。
package config

import (
	"bytes"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// 環境変数名
const (
	EnvConfig       = "DSLR_CONFIG"
	EnvLearningRate = "DSLR_LEARNING_RATE"
	EnvEpochs       = "DSLR_EPOCHS"
	EnvBatchSize    = "DSLR_BATCH_SIZE"
	EnvLogEvery     = "DSLR_LOG_EVERY"
	EnvParallel     = "DSLR_PARALLEL"
	EnvWorkers      = "DSLR_WORKERS"
	EnvModelFormat  = "DSLR_MODEL_FORMAT"
	EnvLogLevel     = "DSLR_LOG_LEVEL"
)

// DefaultEnvFile はカレントディレクトリで探す .env ファイル
const DefaultEnvFile = ".env"

// TrainConfig は学習の設定
type TrainConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"` // 0 は全件バッチ
	LogEvery     int     `yaml:"log_every"`
	Parallel     bool    `yaml:"parallel"`
	Workers      int     `yaml:"workers"` // 0 はCPU数
	ModelFormat  string  `yaml:"model_format"`
	LogLevel     string  `yaml:"log_level"`
}

// Default は既定の設定を返す
func Default() TrainConfig {
	return TrainConfig{
		LearningRate: 0.01,
		Epochs:       10000,
		BatchSize:    0,
		LogEvery:     100,
		ModelFormat:  "json",
		LogLevel:     "info",
	}
}

// Load は .env、YAML（pathが空なら DSLR_CONFIG）、環境変数の順に設定を読み込む
func Load(path string) (TrainConfig, error) {
	return LoadFiles(path, DefaultEnvFile)
}

// LoadFiles は envFile を指定して設定を読み込む。envFile が存在しなくてもエラーにしない。
func LoadFiles(path, envFile string) (TrainConfig, error) {
	cfg := Default()
	logger := log.GetLoggerWithName("config")

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return cfg, errors.Wrapf(err, "load env file %s", envFile)
			}
		} else {
			logger.Debug("Loaded env file", log.PathKey, envFile)
		}
	}

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config file %s", path)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config file %s", path)
		}
		logger.Debug("Loaded config file", log.PathKey, path)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decodeYAML は未知のキーをエラーにする。空のファイルは既定値のまま。
func decodeYAML(data []byte, cfg *TrainConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c *TrainConfig) applyEnv() error {
	if v, ok := lookup(EnvLearningRate); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NewValidationError(EnvLearningRate, "must be a number", v)
		}
		c.LearningRate = f
	}
	if err := envInt(EnvEpochs, &c.Epochs); err != nil {
		return err
	}
	if err := envInt(EnvBatchSize, &c.BatchSize); err != nil {
		return err
	}
	if err := envInt(EnvLogEvery, &c.LogEvery); err != nil {
		return err
	}
	if err := envInt(EnvWorkers, &c.Workers); err != nil {
		return err
	}
	if v, ok := lookup(EnvParallel); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewValidationError(EnvParallel, "must be a boolean", v)
		}
		c.Parallel = b
	}
	if v, ok := lookup(EnvModelFormat); ok {
		c.ModelFormat = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func envInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return errors.NewValidationError(key, "must be an integer", v)
	}
	*dst = i
	return nil
}

// Validate は設定値を検証する
func (c TrainConfig) Validate() error {
	if !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0) {
		return errors.NewValidationError("learning_rate", "must be positive and finite", c.LearningRate)
	}
	if c.Epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", c.Epochs)
	}
	if c.BatchSize < 0 {
		return errors.NewValidationError("batch_size", "must be non-negative", c.BatchSize)
	}
	if c.LogEvery < 0 {
		return errors.NewValidationError("log_every", "must be non-negative", c.LogEvery)
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", "must be non-negative", c.Workers)
	}
	switch strings.ToLower(c.ModelFormat) {
	case "json", "gob":
	default:
		return errors.NewValidationError("model_format", "must be json or gob", c.ModelFormat)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
