package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"papersim/internal/domain"
)

// Compile-time interface check.
var _ PriceStore = (*ParquetStore)(nil)

// ParquetStore implements PriceStore using one Parquet file per symbol on
// disk. Writes merge with existing records, so archiving the same tick twice
// is harmless.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// PriceRecord is the Parquet schema for archived price points.
type PriceRecord struct {
	Symbol    string  `parquet:"symbol"`
	Tick      int64   `parquet:"tick"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price     float64 `parquet:"price"`
}

// WritePoints writes price points to Parquet files, one file per symbol at:
//
//	<DataDir>/prices/<SYMBOL>.parquet
func (s *ParquetStore) WritePoints(_ context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	groups := make(map[string][]PriceRecord)
	for _, p := range points {
		groups[p.Symbol] = append(groups[p.Symbol], PriceRecord{
			Symbol:    p.Symbol,
			Tick:      p.Tick,
			Timestamp: p.Time.UnixMilli(),
			Price:     p.Price,
		})
	}

	for sym, records := range groups {
		path := s.pricePath(sym)

		existing, _ := readParquetFile[PriceRecord](path)
		merged := mergePriceRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing prices for %s: %w", sym, err)
		}
	}
	return nil
}

// ReadPoints reads all archived points for a symbol, ordered by tick.
func (s *ParquetStore) ReadPoints(_ context.Context, symbol string) ([]domain.PricePoint, error) {
	records, err := readParquetFile[PriceRecord](s.pricePath(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(records))
	for _, r := range records {
		points = append(points, domain.PricePoint{
			Symbol: r.Symbol,
			Tick:   r.Tick,
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Price:  r.Price,
		})
	}
	return points, nil
}

// ListSymbols lists all symbols with archived price data.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "prices")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, ".parquet"))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// pricePath returns the filesystem path for a symbol's price archive.
// Layout: <dataDir>/prices/<SYMBOL>.parquet
func (s *ParquetStore) pricePath(symbol string) string {
	return filepath.Join(s.DataDir, "prices", strings.ToUpper(symbol)+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergePriceRecords deduplicates records by (symbol, tick), preferring new
// records over existing ones. Results are sorted by tick.
func mergePriceRecords(existing, incoming []PriceRecord) []PriceRecord {
	type key struct {
		symbol string
		tick   int64
	}
	seen := make(map[key]PriceRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Tick}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Tick}] = r
	}

	merged := make([]PriceRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Tick < merged[j].Tick
	})
	return merged
}
