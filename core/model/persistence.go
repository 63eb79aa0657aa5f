package model

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// Format はアーティファクトのエンコーディング
type Format int

const (
	// FormatJSON は人が読めるJSON形式（デフォルト）。float64は最短表現で書き出すため往復で値が変わらない。
	FormatJSON Format = iota
	// FormatGob はencoding/gobによるバイナリ形式
	FormatGob
)

func (f Format) String() string {
	if f == FormatGob {
		return "gob"
	}
	return "json"
}

// ParseFormat は "json" または "gob" をFormatに変換する
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "gob":
		return FormatGob, nil
	default:
		return FormatJSON, errors.NewValidationError("model_format", "must be json or gob", s)
	}
}

// FormatFromPath は拡張子からFormatを推定する（.gob 以外はJSON）
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".gob") {
		return FormatGob
	}
	return FormatJSON
}

// SaveModel はモデルをファイルに保存する
//
// 同じディレクトリの一時ファイルに書き込んでからリネームするため、
// 失敗しても中途半端なファイルは残らない。
//
// 使用例:
//
//	weights := clf.Export(classes, features, norm)
//	err := model.SaveModel(weights, "model.json", model.FormatJSON)
func SaveModel(mw *ModelWeights, filename string, format Format) (err error) {
	if err := mw.Validate(); err != nil {
		return errors.NewModelError("SaveModel", "refusing to save invalid model", err)
	}

	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file in %s", dir)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = SaveModelToWriter(mw, w, format); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush model")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync model")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close model file")
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrapf(err, "failed to move model into %s", filename)
	}

	log.GetLoggerWithName("core.model").Debug("Model saved",
		log.OperationKey, log.OperationSave,
		log.PathKey, filename,
		log.EstimatorIDKey, mw.ID,
		"format", format.String(),
	)
	return nil
}

// LoadModel はファイルからモデルを読み込み、形状を検証する。
// エンコーディングは内容から判定する（先頭が '{' ならJSON、それ以外はgob）。
func LoadModel(filename string) (*ModelWeights, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewModelFormatError(filename, "unreadable model file", err)
	}

	format := FormatGob
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		format = FormatJSON
	}

	mw, err := LoadModelFromReader(bytes.NewReader(data), format)
	if err != nil {
		return nil, errors.NewModelFormatError(filename, "cannot decode "+format.String(), err)
	}
	if err := mw.Validate(); err != nil {
		return nil, errors.NewModelFormatError(filename, "invalid contents", err)
	}

	log.GetLoggerWithName("core.model").Debug("Model loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, filename,
		log.EstimatorIDKey, mw.ID,
	)
	return mw, nil
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(mw *ModelWeights, w io.Writer, format Format) error {
	switch format {
	case FormatGob:
		if err := gob.NewEncoder(w).Encode(mw); err != nil {
			return errors.Wrap(err, "failed to encode model")
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(mw); err != nil {
			return errors.Wrap(err, "failed to encode model")
		}
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む。形状の検証は行わない。
func LoadModelFromReader(r io.Reader, format Format) (*ModelWeights, error) {
	mw := &ModelWeights{}
	switch format {
	case FormatGob:
		if err := gob.NewDecoder(r).Decode(mw); err != nil {
			return nil, errors.Wrap(err, "failed to decode model")
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(mw); err != nil {
			return nil, errors.Wrap(err, "failed to decode model")
		}
	}
	return mw, nil
}
