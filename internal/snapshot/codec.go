// internal/snapshot/codec.go
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Encode writes records as CSV: one header row, then one row per
// record in input order. Order carries no restore semantics but is
// preserved for determinism.
func Encode(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Folder,
			r.ServiceName,
			r.ServiceType,
			r.ConfiguredState,
			strconv.Itoa(r.MinInstances),
			strconv.Itoa(r.MaxInstances),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("snapshot: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RowError isolates one malformed persisted row. A bad historical row
// must not block restoring the remaining fleet.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("snapshot: row %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Decode parses a persisted snapshot row by row. It returns the
// records that parsed cleanly plus one RowError per malformed row,
// in file order. The error return is reserved for an unreadable
// stream or a header missing a required column.
func Decode(r io.Reader) ([]Record, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows are row-level failures, not fatal

	head, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: read header: %w", err)
	}

	idx := make(map[string]int, len(head))
	for i, name := range head {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range header {
		if _, ok := idx[name]; !ok {
			return nil, nil, fmt.Errorf("snapshot: header missing column %q", name)
		}
	}

	var (
		records []Record
		rowErrs []RowError
	)

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}

		rec, err := parseRow(idx, row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}

	return records, rowErrs, nil
}

func parseRow(idx map[string]int, row []string) (Record, error) {
	field := func(name string) (string, error) {
		i := idx[name]
		if i >= len(row) {
			return "", fmt.Errorf("missing column %s", name)
		}
		return row[i], nil
	}

	intField := func(name string) (int, error) {
		s, err := field(name)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("column %s: not an integer: %q", name, s)
		}
		return n, nil
	}

	var rec Record
	var err error

	if rec.Folder, err = field("folder"); err != nil {
		return Record{}, err
	}
	if rec.ServiceName, err = field("service_name"); err != nil {
		return Record{}, err
	}
	if rec.ServiceType, err = field("service_type"); err != nil {
		return Record{}, err
	}
	if rec.ConfiguredState, err = field("configured_state"); err != nil {
		return Record{}, err
	}
	if rec.MinInstances, err = intField("min_instances"); err != nil {
		return Record{}, err
	}
	if rec.MaxInstances, err = intField("max_instances"); err != nil {
		return Record{}, err
	}

	if rec.MinInstances < 0 {
		return Record{}, fmt.Errorf("min_instances must be >= 0, got %d", rec.MinInstances)
	}
	if rec.MaxInstances < rec.MinInstances {
		return Record{}, fmt.Errorf("max_instances %d below min_instances %d",
			rec.MaxInstances, rec.MinInstances)
	}

	return rec, nil
}
