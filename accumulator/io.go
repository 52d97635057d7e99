package accumulator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// matrixRow is one row of a saved covariance matrix: the bin index, its
// row of values space-joined, and the row sum. These CSV files are the only
// form the matrices are written in. Grounded on the teacher's
// telemetry/output.go WriteTelemetry, which marshals one struct-tagged
// record type per CSV line via gocarina/gocsv.
type matrixRow struct {
	Bin    int     `csv:"bin"`
	Values string  `csv:"values"`
	Weight float64 `csv:"weight"`
}

// countsRow records the accepted-contribution counters alongside the
// matrix dump, so a downstream convergence audit doesn't need to re-derive
// them from logs.
type countsRow struct {
	Cnt2 int `csv:"cnt2"`
	Cnt3 int `csv:"cnt3"`
	Cnt4 int `csv:"cnt4"`
}

func (g *genericAccumulator) SaveIntegrals(dir, tag string, final bool) error {
	outDir := filepath.Join(dir, g.subdir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("accumulator: creating %s: %w", outDir, err)
	}

	suffix := "_partial"
	if final {
		suffix = "_full"
	}

	if err := writeMatrixCSV(filepath.Join(outDir, fmt.Sprintf("c2_%s%s.csv", tag, suffix)), g.nbin, g.mbin, g.c2); err != nil {
		return err
	}
	if err := writeMatrixCSV(filepath.Join(outDir, fmt.Sprintf("c3_%s%s.csv", tag, suffix)), g.nbin*g.mbin, g.nbin*g.mbin, g.c3); err != nil {
		return err
	}
	if err := writeMatrixCSV(filepath.Join(outDir, fmt.Sprintf("c4_%s%s.csv", tag, suffix)), g.nbin*g.mbin, g.nbin*g.mbin, g.c4); err != nil {
		return err
	}

	return writeCountsCSV(filepath.Join(outDir, fmt.Sprintf("counts_%s%s.csv", tag, suffix)), g.cnt2, g.cnt3, g.cnt4)
}

func (g *genericAccumulator) SaveJackknifeIntegrals(dir, tag string) error {
	if !g.jackknife {
		return nil
	}
	outDir := filepath.Join(dir, g.subdir+"Jack")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("accumulator: creating %s: %w", outDir, err)
	}

	for region := 0; region < g.nRegions; region++ {
		regionTag := fmt.Sprintf("%s_region%d", tag, region)
		if err := writeMatrixCSV(filepath.Join(outDir, "c2_"+regionTag+".csv"), g.nbin, g.mbin, g.c2j[region]); err != nil {
			return err
		}
		if err := writeMatrixCSV(filepath.Join(outDir, "c3_"+regionTag+".csv"), g.nbin*g.mbin, g.nbin*g.mbin, g.c3j[region]); err != nil {
			return err
		}
		if err := writeMatrixCSV(filepath.Join(outDir, "c4_"+regionTag+".csv"), g.nbin*g.mbin, g.nbin*g.mbin, g.c4j[region]); err != nil {
			return err
		}
	}
	return nil
}

// writeMatrixCSV flattens a row-major nrows x ncols matrix into one CSV
// row per row-index, each holding its values space-joined (matching the
// original output format's plain-text dense-matrix dumps, sidecar-encoded
// through gocsv's struct-tag marshaling rather than a raw text writer).
func writeMatrixCSV(path string, nrows, ncols int, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("accumulator: creating %s: %w", path, err)
	}
	defer f.Close()

	rows := make([]matrixRow, nrows)
	for r := 0; r < nrows; r++ {
		rowSum := 0.0
		buf := make([]byte, 0, ncols*12)
		for c := 0; c < ncols; c++ {
			v := data[r*ncols+c]
			rowSum += v
			if c > 0 {
				buf = append(buf, ' ')
			}
			buf = fmt.Appendf(buf, "%g", v)
		}
		rows[r] = matrixRow{Bin: r, Values: string(buf), Weight: rowSum}
	}

	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("accumulator: writing %s: %w", path, err)
	}
	return nil
}

func writeCountsCSV(path string, cnt2, cnt3, cnt4 int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("accumulator: creating %s: %w", path, err)
	}
	defer f.Close()

	rows := []countsRow{{Cnt2: cnt2, Cnt3: cnt3, Cnt4: cnt4}}
	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("accumulator: writing %s: %w", path, err)
	}
	return nil
}
