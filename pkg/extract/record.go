package extract

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TechXTT/biopull/internal/core"
)

// Record is one biometric session joined with its owner's email.
type Record struct {
	Email      string
	Session    string
	IPAddress  string
	UserAgent  string
	AppVersion string
	Task       string
	Tags       string
	CSVData    string
}

// Filter narrows which sessions are selected. Biometric is required.
type Filter struct {
	Biometric string
	Email     string
}

// Tables names the bioauth data table and the user table it joins.
type Tables struct {
	Biodata string
	User    string
}

// MoodleTables returns the table names for a Moodle table prefix such as "mdl_".
func MoodleTables(prefix string) Tables {
	return Tables{
		Biodata: prefix + "bioauth_biodata",
		User:    prefix + "user",
	}
}

func (t Tables) query(d core.Dialect, f Filter) *core.QueryBuilder {
	qb := core.NewQueryBuilder(d).
		From(t.Biodata+" b").
		Join("JOIN "+t.User+" u ON b.userid = u.id").
		Where("b.biometric = ?", f.Biometric)
	if f.Email != "" {
		qb.Where("u.email = ?", f.Email)
	}
	return qb
}

// Select runs the join query and returns records in result order.
func Select(ctx context.Context, q core.Querier, t Tables, d core.Dialect, f Filter) ([]Record, error) {
	rows, err := t.query(d, f).
		Select("u.email", "b.session", "b.ipaddress", "b.useragent",
			"b.appversion", "b.task", "b.tags", "b.csvdata").
		OrderBy("b.id").
		Rows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var cols [8]sql.NullString
		if err := rows.Scan(&cols[0], &cols[1], &cols[2], &cols[3],
			&cols[4], &cols[5], &cols[6], &cols[7]); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, Record{
			Email:      cols[0].String,
			Session:    cols[1].String,
			IPAddress:  cols[2].String,
			UserAgent:  cols[3].String,
			AppVersion: cols[4].String,
			Task:       cols[5].String,
			Tags:       cols[6].String,
			CSVData:    cols[7].String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// Count returns how many sessions match f.
func Count(ctx context.Context, q core.Querier, t Tables, d core.Dialect, f Filter) (int64, error) {
	n, err := t.query(d, f).Count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}
