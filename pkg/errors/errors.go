// Package errors はパイプライン全体のエラーハンドリングを提供します。
// scikit-learnの例外システムにインスパイアされており、cockroachdb/errorsを
// ベースにスタックトレース付きの構造化されたエラー情報を提供します。
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	センチネルエラー
//
// ===========================================================================
var (
	// ErrEmptyData は空のデータが渡された場合のエラー
	ErrEmptyData = errors.New("empty data")
	// ErrNotFitted はモデルが未学習の場合のエラー
	ErrNotFitted = errors.New("model is not fitted")
	// ErrDimensionMismatch は次元が一致しない場合のエラー
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrUnsupportedModel はサポートされていないモデルタイプのエラー
	ErrUnsupportedModel = errors.New("unsupported model type")
	// ErrConfigNotFound はモデルタイプに対応する設定ファイルが登録されていない場合のエラー
	ErrConfigNotFound = errors.New("no config file registered for model type")
)

// NotFittedError は未学習のモデルに対する操作を表すエラー
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s called before Fit", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologの構造化ログにエラー情報を出力する
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("error_type", "NotFittedError").
		Str("model", e.ModelName).
		Str("method", e.Method)
}

// NewNotFittedError は新しいNotFittedErrorを作成する
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(errors.Mark(
		&NotFittedError{ModelName: modelName, Method: method}, ErrNotFitted))
}

// DimensionError は行列・ベクトルの次元不一致を表すエラー
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: dimension mismatch on axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// MarshalZerologObject はzerologの構造化ログにエラー情報を出力する
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("error_type", "DimensionError").
		Str("op", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis)
}

// NewDimensionError は新しいDimensionErrorを作成する
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(errors.Mark(
		&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis},
		ErrDimensionMismatch))
}

// ValueError は不正な値が渡された場合のエラー
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成する
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ValidationError はパラメータ検証の失敗を表すエラー
type ValidationError struct {
	Param  string
	Reason string
	Value  interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Param, e.Value, e.Reason)
}

// MarshalZerologObject はzerologの構造化ログにエラー情報を出力する
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("error_type", "ValidationError").
		Str("param", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

// NewValidationError は新しいValidationErrorを作成する
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{Param: param, Reason: reason, Value: value})
}

// ModelError はモデル操作中のエラーをラップする
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成する
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors への薄いラッパー
//
// ===========================================================================

// Is はerrors.Isのラッパー
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はerrors.Asのラッパー
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap はエラーにメッセージを付加する
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf はエラーにフォーマット付きメッセージを付加する
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成する
func New(message string) error {
	return errors.New(message)
}

// Newf はフォーマット付きの新しいエラーを作成する
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// Mark はエラーにセンチネルの印を付ける
func Mark(err, mark error) error {
	return errors.Mark(err, mark)
}

// WithStack はエラーにスタックトレースを付加する
func WithStack(err error) error {
	return errors.WithStack(err)
}
