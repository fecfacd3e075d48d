package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// IndexColumns lead every written file.
var IndexColumns = []string{"email", "session"}

// Row is one output line keyed by (Email, Session). Values align with
// Table.Columns.
type Row struct {
	Email   string
	Session string
	Values  []string
}

// Table is the consolidated result of an extraction.
type Table struct {
	Columns []string
	Rows    []Row
}

// Consolidate concatenates blocks into one table sorted by (email, session).
// Columns are the union of block columns in first-seen order; rows sharing a
// key keep their block order.
func Consolidate(blocks []*Block) *Table {
	t := &Table{}
	pos := map[string]int{}
	for _, b := range blocks {
		for _, c := range b.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(t.Columns)
				t.Columns = append(t.Columns, c)
			}
		}
	}
	if len(t.Columns) == 0 {
		t.Columns = append(t.Columns, MetadataColumns...)
	}

	for _, b := range blocks {
		idx := make([]int, len(b.Columns))
		for i, c := range b.Columns {
			idx[i] = pos[c]
		}
		for _, r := range b.Rows {
			vals := make([]string, len(t.Columns))
			for i, v := range r {
				vals[idx[i]] = v
			}
			t.Rows = append(t.Rows, Row{Email: b.Email, Session: b.Session, Values: vals})
		}
	}

	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		return a.Session < b.Session
	})
	return t
}

// Column returns the values of the named column, or nil if it is absent.
func (t *Table) Column(name string) []string {
	i := indexOf(t.Columns, name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for j, r := range t.Rows {
		out[j] = r.Values[i]
	}
	return out
}

// Group is the run of rows sharing one (email, session) key.
type Group struct {
	Email   string
	Session string
	Rows    [][]string
}

// Groups regroups rows by key in order of first appearance.
func (t *Table) Groups() []Group {
	var groups []Group
	at := map[[2]string]int{}
	for _, r := range t.Rows {
		k := [2]string{r.Email, r.Session}
		i, ok := at[k]
		if !ok {
			i = len(groups)
			at[k] = i
			groups = append(groups, Group{Email: r.Email, Session: r.Session})
		}
		groups[i].Rows = append(groups[i].Rows, r.Values)
	}
	return groups
}

// WriteCSV writes the header and every row, index columns first. Rows
// shorter than Columns are padded with empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, IndexColumns...), t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	line := make([]string, len(header))
	for i, r := range t.Rows {
		if len(r.Values) > len(t.Columns) {
			return fmt.Errorf("write row %d: %d values for %d columns", i, len(r.Values), len(t.Columns))
		}
		clear(line)
		line[0], line[1] = r.Email, r.Session
		copy(line[2:], r.Values)
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path. The file only appears once it has
// been written completely.
func (t *Table) WriteFile(path string) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = f.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err = t.WriteCSV(f); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// ReadCSV reads a file produced by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < len(IndexColumns) || header[0] != IndexColumns[0] || header[1] != IndexColumns[1] {
		return nil, errors.New("read header: missing email,session index columns")
	}
	t := &Table{Columns: header[2:]}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		t.Rows = append(t.Rows, Row{Email: rec[0], Session: rec[1], Values: rec[2:]})
	}
	return t, nil
}
