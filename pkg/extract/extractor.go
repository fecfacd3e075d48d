// Package extract pulls bioauth session payloads out of the database and
// turns them into one consolidated table.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TechXTT/biopull/internal/core"
	"github.com/TechXTT/biopull/pkg/config"
	"github.com/TechXTT/biopull/pkg/runtime"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OpenFunc opens the session an extraction runs in.
type OpenFunc func(ctx context.Context, cfg *config.Config) (*runtime.Session, error)

// Extractor runs one extraction against the database described by Config.
type Extractor struct {
	Config *config.Config
	// Progress receives one "Loaded" line per record. Defaults to stdout.
	Progress io.Writer
	Logger   zerolog.Logger
	// Open defaults to runtime.Open.
	Open OpenFunc
}

// New returns an Extractor for cfg that reports progress on stdout.
func New(cfg *config.Config, logger zerolog.Logger) *Extractor {
	return &Extractor{Config: cfg, Progress: os.Stdout, Logger: logger, Open: runtime.Open}
}

func (e *Extractor) filter(biometric string) Filter {
	return Filter{Biometric: biometric, Email: e.Config.Email}
}

func (e *Extractor) tables() Tables {
	return MoodleTables(e.Config.TablePrefix)
}

// withSession opens a session, runs fn and always closes the session.
func (e *Extractor) withSession(ctx context.Context, fn func(q core.Querier) error) (err error) {
	open := e.Open
	if open == nil {
		open = runtime.Open
	}
	s, err := open(ctx, e.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(s.Querier())
}

// Fetch returns every record matching biometric, in query order.
func (e *Extractor) Fetch(ctx context.Context, biometric string) ([]Record, error) {
	var records []Record
	err := e.withSession(ctx, func(q core.Querier) error {
		var err error
		records, err = Select(ctx, q, e.tables(), core.DialectFor(e.Config.Driver), e.filter(biometric))
		return err
	})
	return records, err
}

// Count returns the number of sessions matching biometric.
func (e *Extractor) Count(ctx context.Context, biometric string) (int64, error) {
	var n int64
	err := e.withSession(ctx, func(q core.Querier) error {
		var err error
		n, err = Count(ctx, q, e.tables(), core.DialectFor(e.Config.Driver), e.filter(biometric))
		return err
	})
	return n, err
}

// Extract fetches the matching records, decodes every payload and returns
// the consolidated table. A malformed payload aborts the whole extraction.
// No matching records yields a table with only the metadata columns.
func (e *Extractor) Extract(ctx context.Context, biometric string) (*Table, error) {
	log := e.Logger.With().
		Str("run_id", uuid.NewString()).
		Str("biometric", biometric).
		Logger()

	records, err := e.Fetch(ctx, biometric)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("records", len(records)).Msg("fetched sessions")

	progress := e.Progress
	if progress == nil {
		progress = io.Discard
	}

	blocks := make([]*Block, 0, len(records))
	for _, r := range records {
		b, err := ParseBlock(r)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(progress, "Loaded %s from %s\n", r.Session, r.Email)
		blocks = append(blocks, b)
	}

	t := Consolidate(blocks)
	if len(records) == 0 {
		log.Warn().Msg("no sessions matched; output will contain the header only")
	} else {
		log.Info().Int("sessions", len(records)).Int("rows", len(t.Rows)).Msg("extraction complete")
	}
	return t, nil
}
