package pipeline

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// PredictionHeader は予測ファイルのヘッダー
var PredictionHeader = []string{"Index", "Hogwarts House"}

// WritePredictionsTo は "Index,Hogwarts House" 形式でwに書き出す。
// Indexは入力の行順の0始まりの番号。
func WritePredictionsTo(w io.Writer, houses []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PredictionHeader); err != nil {
		return errors.Wrap(err, "write prediction header")
	}
	for i, h := range houses {
		if err := cw.Write([]string{strconv.Itoa(i), h}); err != nil {
			return errors.Wrapf(err, "write prediction row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush predictions")
}

// WritePredictions は予測をファイルに書き出す。
// 一時ファイルに書いてからリネームするので、失敗しても途中までのファイルは残らない。
func WritePredictions(path string, houses []string) (err error) {
	if len(houses) == 0 {
		return errors.MarkInvalidInput(errors.NewModelError("WritePredictions", "no predictions", errors.ErrEmptyData))
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".predictions-*.tmp")
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
	if err = WritePredictionsTo(w, houses); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush predictions")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close predictions file")
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(err, "failed to set permissions")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to move predictions into %s", path)
	}

	log.GetLoggerWithName("pipeline").Debug("Predictions written",
		log.PathKey, path,
		log.PredsKey, len(houses),
	)
	return nil
}
