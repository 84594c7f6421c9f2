package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const indexColumn = "Datetime"

// WriteCSV persists the feature table as one flat hourly-indexed file,
// overwriting any previous run's output.
func WriteCSV(path string, f *frame.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	stamps := make([]string, f.Len())
	for i, t := range f.Index() {
		stamps[i] = t.UTC().Format("2006-01-02 15:04:05")
	}
	cols := []series.Series{series.New(stamps, series.String, indexColumn)}
	for _, name := range f.Names() {
		cols = append(cols, series.New(f.Values(name), series.Float, name))
	}

	df := dataframe.New(cols...)
	if df.Error() != nil {
		return fmt.Errorf("build output table: %w", df.Error())
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := df.WriteCSV(file); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
