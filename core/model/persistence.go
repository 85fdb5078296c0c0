package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// SaveModel は学習済みモデルをgob形式でファイルに保存する
//
// 使用例:
//
//	rf := ensemble.NewRandomForestRegressor()
//	// ... 学習 ...
//	err := model.SaveModel(rf, "model.gob")
func SaveModel(m interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create model file %s", filename)
	}
	defer file.Close()

	return WriteModel(m, file)
}

// WriteModel はモデルをWriterにgobエンコードして書き込む
func WriteModel(m interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModel はファイルからモデルを読み込む。
// mには読み込み先の構造体へのポインタを渡す。
func LoadModel(m interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open model file %s", filename)
	}
	defer file.Close()

	return ReadModel(m, file)
}

// ReadModel はReaderからモデルをgobデコードして読み込む
func ReadModel(m interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
