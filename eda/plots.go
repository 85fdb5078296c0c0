// Package eda renders exploratory-data-analysis artifacts: one boxplot per
// feature column and a correlation-matrix heatmap.
package eda

import (
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// SaveBoxplots writes one "<column>_boxplot.png" per column of X into dir,
// creating the directory if needed. Existing files are overwritten. The
// returned paths are in column order.
func SaveBoxplots(X *mat.Dense, columns []string, dir string) ([]string, error) {
	r, c := X.Dims()
	if c != len(columns) {
		return nil, errors.NewDimensionError("eda.SaveBoxplots", len(columns), c, 1)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create boxplot directory %s", dir)
	}

	paths := make([]string, 0, c)
	for j, column := range columns {
		values := make(plotter.Values, r)
		for i := 0; i < r; i++ {
			values[i] = X.At(i, j)
		}

		p := plot.New()
		p.Title.Text = "Boxplot of " + column
		p.Y.Label.Text = column

		box, err := plotter.NewBoxPlot(vg.Points(40), 0, values)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build boxplot for %s", column)
		}
		p.Add(box)
		p.NominalX(column)

		path := filepath.Join(dir, column+"_boxplot.png")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return nil, errors.Wrapf(err, "failed to save boxplot %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SaveCorrelationMatrix computes the Pearson correlation matrix of X and
// renders it as a diverging blue-red heatmap at path.
func SaveCorrelationMatrix(X *mat.Dense, columns []string, path string) error {
	_, c := X.Dims()
	if c != len(columns) {
		return errors.NewDimensionError("eda.SaveCorrelationMatrix", len(columns), c, 1)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}

	corr := mat.NewSymDense(c, nil)
	stat.CorrelationMatrix(corr, X, nil)

	p := plot.New()
	p.Title.Text = "Correlation Matrix"

	hm := plotter.NewHeatMap(&corrGrid{corr: corr}, moreland.SmoothBlueRed().Palette(255))
	// fix the color scale so plots from different runs are comparable
	hm.Min = -1
	hm.Max = 1
	p.Add(hm)
	p.NominalX(columns...)
	p.NominalY(columns...)

	if err := p.Save(8*vg.Inch, 7*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save correlation matrix %s", path)
	}
	return nil
}

// corrGrid adapts a symmetric correlation matrix to plotter.GridXYZ.
type corrGrid struct {
	corr *mat.SymDense
}

func (g *corrGrid) Dims() (int, int) {
	n := g.corr.SymmetricDim()
	return n, n
}

func (g *corrGrid) Z(c, r int) float64 { return g.corr.At(r, c) }
func (g *corrGrid) X(c int) float64    { return float64(c) }
func (g *corrGrid) Y(r int) float64    { return float64(r) }
