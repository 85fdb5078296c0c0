// Package dataset はCSVファイルを読み込み、名前付きカラムを持つ
// テーブルとして保持します。欠損セルはNaNとして表現されます。
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// 欠損値として扱うセル表現
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"NaN":  true,
	"nan":  true,
	"null": true,
}

// Table はカラム指向のインメモリテーブル。
// 読み込み後は変更されない（1回のランの間は読み取り専用）。
type Table struct {
	columns []string
	index   map[string]int
	data    [][]float64 // カラムごとの値、行数は全カラムで一致
	nRows   int
}

// ReadCSV はCSVファイルをTableに読み込む。
// 先頭行はヘッダとして解釈され、全セルはfloat64としてパースされる。
// 欠損セル（空文字・NA・NaN）はNaNになる。
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer file.Close()

	return ReadCSVFrom(file)
}

// ReadCSVFrom はReaderからCSVを読み込む
func ReadCSVFrom(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	t := &Table{
		columns: header,
		index:   make(map[string]int, len(header)),
		data:    make([][]float64, len(header)),
	}
	for i, name := range header {
		if _, exists := t.index[name]; exists {
			return nil, errors.NewValueError("ReadCSV", "duplicate column name: "+name)
		}
		t.index[name] = i
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV row %d", t.nRows+2)
		}

		for i, cell := range record {
			t.data[i] = append(t.data[i], parseCell(cell))
		}
		t.nRows++
	}

	if t.nRows == 0 {
		return nil, errors.Mark(errors.New("dataset has no data rows"), errors.ErrEmptyData)
	}
	return t, nil
}

func parseCell(cell string) float64 {
	if missingTokens[cell] {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		// 数値化できないセルも欠損として扱う
		return math.NaN()
	}
	return v
}

// NumRows は行数を返す
func (t *Table) NumRows() int { return t.nRows }

// Columns はカラム名を読み込み時の順序で返す
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn はカラムの存在を確認する
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Select は指定されたカラムを指定順に並べた特徴量行列を返す。
// 存在しないカラム名が含まれる場合はエラーを返す。
func (t *Table) Select(columns []string) (*mat.Dense, error) {
	if len(columns) == 0 {
		return nil, errors.NewValueError("Table.Select", "no columns requested")
	}

	X := mat.NewDense(t.nRows, len(columns), nil)
	for j, name := range columns {
		idx, ok := t.index[name]
		if !ok {
			return nil, errors.NewValueError("Table.Select", "unknown column: "+name)
		}
		for i := 0; i < t.nRows; i++ {
			X.Set(i, j, t.data[idx][i])
		}
	}
	return X, nil
}

// Column は単一カラムをベクトルとして返す
func (t *Table) Column(name string) (*mat.VecDense, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, errors.NewValueError("Table.Column", "unknown column: "+name)
	}

	v := mat.NewVecDense(t.nRows, nil)
	for i := 0; i < t.nRows; i++ {
		v.SetVec(i, t.data[idx][i])
	}
	return v, nil
}
