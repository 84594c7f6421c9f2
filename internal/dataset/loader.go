package dataset

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/AbdallahIsmaili/DeepBTC/internal/domain"
	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"

	"github.com/go-gota/gota/dataframe"
)

// ErrMissingRequiredSource is returned when the OHLCV table cannot be loaded.
// It is the only load failure that aborts a run.
var ErrMissingRequiredSource = errors.New("required OHLCV source missing")

// dateColumnPriority is tried in order before falling back to the first
// column. Macro exports in particular name their date column inconsistently.
var dateColumnPriority = []string{"Date", "date", "Datetime", "datetime", "timestamp", "Timestamp"}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05-07:00",
}

type Paths struct {
	OHLCV      string
	Blockchain string
	Sentiment  string
	Macro      string
}

// Result is the typed outcome of loading one optional source, so downstream
// decisions are explicit branches instead of nil checks.
type Result struct {
	Frame  *frame.Frame
	Status domain.LoadStatus
	Err    error
}

type Sources struct {
	OHLCV      *frame.Frame
	Blockchain Result
	Sentiment  Result
	Macro      Result
}

// Load reads the required OHLCV table and each optional source independently.
// Optional failures are recorded, never propagated.
func Load(paths Paths) (*Sources, error) {
	ohlcv, err := loadTable(paths.OHLCV)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingRequiredSource, err)
	}
	if ohlcv.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrMissingRequiredSource, paths.OHLCV)
	}
	log.Printf("loaded ohlcv: %d rows, %d columns", ohlcv.Len(), ohlcv.NumCols())

	src := &Sources{OHLCV: ohlcv}
	src.Blockchain = loadOptional(domain.SourceBlockchain, paths.Blockchain)
	src.Sentiment = loadOptional(domain.SourceSentiment, paths.Sentiment)
	src.Macro = loadOptional(domain.SourceMacro, paths.Macro)
	return src, nil
}

func loadOptional(kind domain.SourceKind, path string) Result {
	if path == "" {
		return Result{Status: domain.LoadAbsent}
	}
	if _, err := os.Stat(path); err != nil {
		log.Printf("%s source not found at %s, skipping", kind, path)
		return Result{Status: domain.LoadAbsent}
	}
	f, err := loadTable(path)
	if err != nil {
		log.Printf("%s source unreadable (%v), skipping", kind, err)
		return Result{Status: domain.LoadFailed, Err: err}
	}
	log.Printf("loaded %s: %d rows, %d columns", kind, f.Len(), f.NumCols())
	return Result{Frame: f, Status: domain.LoadOK}
}

func loadTable(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	df := dataframe.ReadCSV(file)
	if df.Error() != nil {
		return nil, fmt.Errorf("parse %s: %w", path, df.Error())
	}

	names := df.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("%s has no columns", path)
	}
	dateCol := detectDateColumn(names)

	times, err := parseTimes(df.Col(dateCol).Records())
	if err != nil {
		return nil, fmt.Errorf("parse %s column %q: %w", path, dateCol, err)
	}

	// Sort by timestamp and keep the last row for any duplicate.
	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return times[order[a]].Before(times[order[b]]) })

	keep := make([]int, 0, len(order))
	for _, idx := range order {
		if len(keep) > 0 && times[keep[len(keep)-1]].Equal(times[idx]) {
			keep[len(keep)-1] = idx
			continue
		}
		keep = append(keep, idx)
	}

	index := make([]time.Time, len(keep))
	for i, idx := range keep {
		index[i] = times[idx]
	}
	out, err := frame.New(index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, name := range names {
		if name == dateCol {
			continue
		}
		all := df.Col(name).Float()
		vals := make([]float64, len(keep))
		for i, idx := range keep {
			vals[i] = all[idx]
		}
		if err := out.AddColumn(name, frame.RoleRaw, vals); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return out, nil
}

func detectDateColumn(names []string) string {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	for _, candidate := range dateColumnPriority {
		if present[candidate] {
			return candidate
		}
	}
	return names[0]
}

func parseTimes(records []string) ([]time.Time, error) {
	out := make([]time.Time, len(records))
	for i, rec := range records {
		parsed := false
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, rec); err == nil {
				out[i] = t.UTC()
				parsed = true
				break
			}
		}
		if !parsed {
			return nil, fmt.Errorf("unparseable timestamp %q at row %d", rec, i)
		}
	}
	return out, nil
}
