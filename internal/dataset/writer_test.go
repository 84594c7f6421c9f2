package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	index := []time.Time{start, start.Add(time.Hour), start.Add(2 * time.Hour)}
	f, err := frame.New(index)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.AddColumn("Close", frame.RoleRaw, []float64{100.5, 101.25, 99.75}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddColumn("target_return_1h", frame.RoleLabel, []float64{0.01, -0.02, 0.005}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "features", "out.csv")
	if err := WriteCSV(path, f); err != nil {
		t.Fatal(err)
	}

	loaded, err := loadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", loaded.Len())
	}
	if !loaded.Index()[2].Equal(index[2]) {
		t.Fatalf("timestamp mismatch: %s vs %s", loaded.Index()[2], index[2])
	}
	if loaded.Values("Close")[1] != 101.25 || loaded.Values("target_return_1h")[2] != 0.005 {
		t.Fatal("values changed across the write/read boundary")
	}
}

func TestWriteCSVIsDeterministic(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f, err := frame.New([]time.Time{start, start.Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.AddColumn("a", frame.RoleRaw, []float64{1.5, 2.5}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddColumn("b", frame.RoleDerived, []float64{-0.25, 0.75}); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	if err := WriteCSV(first, f); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(second, f.Clone()); err != nil {
		t.Fatal(err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("identical frames produced different bytes")
	}
}
