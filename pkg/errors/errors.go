// Package errors はdslr全体のエラーハンドリングと警告システムを提供します。
// データセット検証、学習、推論、モデル永続化で発生するエラーを
// 名前付きの型として区別し、cockroachdb/errorsによるスタックトレースを付与します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("dslr-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ZeroVarianceWarning は標準偏差がほぼ0の特徴量を検出した場合の警告です。
// 該当列はスケール1で中心化のみ行われます。
type ZeroVarianceWarning struct {
	Feature int
	Name    string
	Std     float64
}

func (w *ZeroVarianceWarning) Error() string {
	if w.Name != "" {
		return fmt.Sprintf("feature %d (%s) has zero variance (std=%g); using unit scale", w.Feature, w.Name, w.Std)
	}
	return fmt.Sprintf("feature %d has zero variance (std=%g); using unit scale", w.Feature, w.Std)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ZeroVarianceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("feature", w.Feature).
		Str("name", w.Name).
		Float64("std", w.Std).
		Str("type", "ZeroVarianceWarning")
}

// NewZeroVarianceWarning は新しいZeroVarianceWarningを作成します。
func NewZeroVarianceWarning(feature int, name string, std float64) *ZeroVarianceWarning {
	return &ZeroVarianceWarning{Feature: feature, Name: name, Std: std}
}

// ConvergenceWarning は学習の最終コストが初期コストより改善しなかった場合の警告です。
// 学習率が大きすぎる可能性があります。
type ConvergenceWarning struct {
	Algorithm   string
	Class       int
	Epochs      int
	InitialCost float64
	FinalCost   float64
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%s: class %d did not converge after %d epochs (cost %.6f -> %.6f); consider a smaller learning rate",
		w.Algorithm, w.Class, w.Epochs, w.InitialCost, w.FinalCost)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("class", w.Class).
		Int("epochs", w.Epochs).
		Float64("initial_cost", w.InitialCost).
		Float64("final_cost", w.FinalCost).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, class, epochs int, initialCost, finalCost float64) *ConvergenceWarning {
	return &ConvergenceWarning{
		Algorithm:   algorithm,
		Class:       class,
		Epochs:      epochs,
		InitialCost: initialCost,
		FinalCost:   finalCost,
	}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("dslr: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dslr: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError はハイパーパラメータや設定値の検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dslr: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
// 学習データとラベルの不整合など、コアの事前条件違反に使います。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("dslr: %s: %s", e.Op, e.Message)
}

// Unwrap はErrInvalidInputを返し、errors.Is(err, ErrInvalidInput)を成立させます。
func (e *ValueError) Unwrap() error {
	return ErrInvalidInput
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dslr: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("dslr: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Infを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "normalize", "gradient_update"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号
}

func (e *NumericalInstabilityError) Error() string {
	var b strings.Builder
	for i, v := range e.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		if i >= 5 {
			b.WriteString("...")
			break
		}
		fmt.Fprintf(&b, "%.6g", v)
	}
	return fmt.Sprintf("dslr: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, b.String())
}

// Unwrap はErrInvalidInputを返します。非有限値はコアへの不正入力として扱います。
func (e *NumericalInstabilityError) Unwrap() error {
	return ErrInvalidInput
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}

// ===========================================================================
//
//	データセット検証エラー
//
// ===========================================================================

// csvValidation は3種類のCSV検証エラーに共通する分類マーカーです。
type csvValidation interface {
	error
	csvValidation()
}

// IsCSVValidationError はerrのチェーンにCSV検証エラー
// （ColumnMismatchError, DtypeMismatchError, ValueValidationError）が含まれるかを判定します。
func IsCSVValidationError(err error) bool {
	var target csvValidation
	return errors.As(err, &target)
}

// MissingFileError は入力ファイルが存在しない場合のエラーです。
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("dslr: file '%s' not found", e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return e.Err
}

// NewMissingFileError は新しいMissingFileErrorを作成します。
func NewMissingFileError(path string, cause error) error {
	return errors.WithStack(&MissingFileError{Path: path, Err: cause})
}

// ColumnMismatchError はCSVのヘッダーが期待する列構成と一致しない場合のエラーです。
type ColumnMismatchError struct {
	Path     string
	Expected []string
	Got      []string
}

func (e *ColumnMismatchError) Error() string {
	return fmt.Sprintf("dslr: %s: column names do not match the expected structure (expected %d columns [%s], got %d columns [%s])",
		e.Path, len(e.Expected), strings.Join(e.Expected, ", "), len(e.Got), strings.Join(e.Got, ", "))
}

func (e *ColumnMismatchError) csvValidation() {}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ColumnMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Strs("expected", e.Expected).
		Strs("got", e.Got).
		Str("type", "ColumnMismatchError")
}

// NewColumnMismatchError は新しいColumnMismatchErrorを作成します。
func NewColumnMismatchError(path string, expected, got []string) error {
	return errors.WithStack(&ColumnMismatchError{Path: path, Expected: expected, Got: got})
}

// DtypeMismatchError は列の値が期待する型として解釈できない場合のエラーです。
type DtypeMismatchError struct {
	Path     string
	Column   string
	Row      int // 1始まりのデータ行番号
	Expected string
	Value    string
}

func (e *DtypeMismatchError) Error() string {
	return fmt.Sprintf("dslr: %s: data type mismatch in column '%s' at row %d. Expected %s, found %q",
		e.Path, e.Column, e.Row, e.Expected, e.Value)
}

func (e *DtypeMismatchError) csvValidation() {}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DtypeMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("column", e.Column).
		Int("row", e.Row).
		Str("expected", e.Expected).
		Str("value", e.Value).
		Str("type", "DtypeMismatchError")
}

// NewDtypeMismatchError は新しいDtypeMismatchErrorを作成します。
func NewDtypeMismatchError(path, column string, row int, expected, value string) error {
	return errors.WithStack(&DtypeMismatchError{Path: path, Column: column, Row: row, Expected: expected, Value: value})
}

// ValueValidationError はカテゴリ値（寮名、利き手）や日付が不正な場合のエラーです。
type ValueValidationError struct {
	Path   string
	Column string
	Row    int
	Value  string
	Reason string
}

func (e *ValueValidationError) Error() string {
	return fmt.Sprintf("dslr: %s: invalid value %q in column '%s' at row %d: %s",
		e.Path, e.Value, e.Column, e.Row, e.Reason)
}

func (e *ValueValidationError) csvValidation() {}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValueValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("column", e.Column).
		Int("row", e.Row).
		Str("value", e.Value).
		Str("reason", e.Reason).
		Str("type", "ValueValidationError")
}

// NewValueValidationError は新しいValueValidationErrorを作成します。
func NewValueValidationError(path, column string, row int, value, reason string) error {
	return errors.WithStack(&ValueValidationError{Path: path, Column: column, Row: row, Value: value, Reason: reason})
}

// ModelFormatError はモデルファイルが読めない、または内容が壊れている場合のエラーです。
type ModelFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ModelFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dslr: malformed model artifact '%s': %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("dslr: malformed model artifact '%s': %s", e.Path, e.Reason)
}

func (e *ModelFormatError) Unwrap() error {
	return e.Err
}

// NewModelFormatError は新しいModelFormatErrorを作成します。
func NewModelFormatError(path, reason string, err error) error {
	return errors.WithStack(&ModelFormatError{Path: path, Reason: reason, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// MarkInvalidInput は元の型を保ったまま、errors.Is(err, ErrInvalidInput) が真になるよう印を付けます。
// 形状の不一致など、コアの事前条件違反をまとめて判定するために使います。
func MarkInvalidInput(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrInvalidInput)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrInvalidInput はコアの事前条件（形状、有限値）に違反した入力を表します。
	ErrInvalidInput = New("invalid input")
)
