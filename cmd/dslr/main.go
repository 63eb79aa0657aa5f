// Command dslr は生徒の成績データの記述統計、可視化、寮の分類を行うCLIです。
//
//	dslr describe data/dataset_train.csv
//	dslr histogram --course "Care of Magical Creatures"
//	dslr train data/dataset_train.csv --model-file model.json
//	dslr predict data/dataset_test.csv --model-file model.json --output houses.csv
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		// 最初のシグナルで取り消したら既定の動作に戻し、2回目で即座に終了させる
		<-ctx.Done()
		stop()
	}()
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run はコマンドを実行し、終了コードを返す
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := errors.SafeExecute("dslr", func() error {
		root := newRootCmd(stdout, stderr)
		root.SetArgs(args)
		return root.ExecuteContext(ctx)
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
