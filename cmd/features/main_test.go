package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/AbdallahIsmaili/DeepBTC/internal/config"
	"github.com/AbdallahIsmaili/DeepBTC/internal/dataset"
	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func syntheticSources(t *testing.T) *dataset.Sources {
	t.Helper()
	const n = 400
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, n)
	columns := map[string][]float64{
		"Open": make([]float64, n), "High": make([]float64, n),
		"Low": make([]float64, n), "Close": make([]float64, n),
		"Volume": make([]float64, n),
	}
	for i := 0; i < n; i++ {
		index[i] = start.Add(time.Duration(i) * time.Hour)
		price := 100 + 5*math.Sin(float64(i)/9) + float64(i)*0.01
		columns["Open"][i] = price - 0.2
		columns["High"][i] = price + 0.6
		columns["Low"][i] = price - 0.7
		columns["Close"][i] = price
		columns["Volume"][i] = 1000 + float64(i%17)
	}
	f, err := frame.New(index)
	if err != nil {
		t.Fatal(err)
	}
	for name, values := range columns {
		if err := f.AddColumn(name, frame.RoleRaw, values); err != nil {
			t.Fatal(err)
		}
	}
	return &dataset.Sources{OHLCV: f}
}

func TestMainRunsPipelineAndWritesFeatures(t *testing.T) {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origLoadSources := loadSourcesFunc
	origWriteCSV := writeCSVFunc
	origFatalf := fatalf
	t.Cleanup(func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		loadSourcesFunc = origLoadSources
		writeCSVFunc = origWriteCSV
		fatalf = origFatalf
	})

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{FeaturesPath: "out/features.csv", RetentionTarget: 0.9}
	}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}

	sources := syntheticSources(t)
	var loadedPaths dataset.Paths
	loadSourcesFunc = func(paths dataset.Paths) (*dataset.Sources, error) {
		loadedPaths = paths
		return sources, nil
	}

	var writtenPath string
	var writtenRows int
	writeCSVFunc = func(path string, f *frame.Frame) error {
		writtenPath = path
		writtenRows = f.Len()
		return nil
	}
	fatalf = func(format string, v ...any) {
		t.Fatalf("unexpected fatal: "+format, v...)
	}

	main()

	if loadedPaths.OHLCV != "" {
		t.Fatalf("default config has no ohlcv override, got %q", loadedPaths.OHLCV)
	}
	if writtenPath != "out/features.csv" {
		t.Fatalf("features written to %q", writtenPath)
	}
	if writtenRows != 400-169 {
		t.Fatalf("written rows = %d, want %d", writtenRows, 400-169)
	}
}
