package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedCSV marks a csvdata payload that cannot be read as a table.
var ErrMalformedCSV = errors.New("malformed csv payload")

// MetadataColumns are appended to every block, in this order.
var MetadataColumns = []string{"ipaddress", "useragent", "appversion", "task", "tags"}

// Block is the table decoded from one record's payload, tagged with its
// metadata. Every row belongs to (Email, Session).
type Block struct {
	Email   string
	Session string
	Columns []string
	Rows    [][]string
}

// ParseBlock decodes r.CSVData. The first line is the header; blank lines
// are skipped and short rows are padded with empty cells. A row longer than
// the header, bad quoting or an empty payload is ErrMalformedCSV.
func ParseBlock(r Record) (*Block, error) {
	cr := csv.NewReader(strings.NewReader(r.CSVData))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, malformed(r, errors.New("empty payload"))
	}
	if err != nil {
		return nil, malformed(r, err)
	}
	cols := headerNames(header)
	width := len(cols)

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(r, err)
		}
		if len(rec) > width {
			line, _ := cr.FieldPos(0)
			return nil, malformed(r, fmt.Errorf("line %d: expected %d fields, saw %d", line, width, len(rec)))
		}
		row := make([]string, width, width+len(MetadataColumns))
		copy(row, rec)
		rows = append(rows, row)
	}

	meta := []string{r.IPAddress, r.UserAgent, r.AppVersion, r.Task, r.Tags}
	for i, name := range MetadataColumns {
		idx := indexOf(cols, name)
		if idx < 0 {
			idx = len(cols)
			cols = append(cols, name)
			for j := range rows {
				rows[j] = append(rows[j], "")
			}
		}
		// metadata wins over a payload column of the same name
		for j := range rows {
			rows[j][idx] = meta[i]
		}
	}

	return &Block{Email: r.Email, Session: r.Session, Columns: cols, Rows: rows}, nil
}

// headerNames keeps header text as written. A blank name becomes
// "Unnamed: <i>" and a repeated name gets the first free ".<n>" suffix.
func headerNames(header []string) []string {
	cols := make([]string, len(header))
	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		cols[i] = h
	}

	counts := make(map[string]int, len(cols))
	for i, col := range cols {
		cur := counts[col]
		for cur > 0 {
			counts[col] = cur + 1
			col = col + "." + strconv.Itoa(cur)
			cur = counts[col]
		}
		cols[i] = col
		counts[col] = cur + 1
	}
	return cols
}

func malformed(r Record, err error) error {
	return fmt.Errorf("session %s from %s: %w: %v", r.Session, r.Email, ErrMalformedCSV, err)
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
