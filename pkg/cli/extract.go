package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewExtractCmd builds the extraction command used as the biopull root.
func NewExtractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "biopull [flags] [--] USER PASSWORD DATABASE BIOMETRIC OUTPUT",
		Short: "Export bioauth session payloads to one CSV file",
		Long: `biopull reads every bioauth session recorded for BIOMETRIC, expands the
CSV payload stored with each session, tags the rows with the session's
ipaddress, useragent, appversion, task and tags, and writes them to OUTPUT
sorted by (email, session).

Flags go before the positional arguments; everything after USER is taken
as written, so PASSWORD may start with "-". Put "--" in front of USER when
USER itself starts with "-", or when it is "count" followed by four more
arguments.`,
		Example: `  biopull moodle secret moodle keystroke keystroke.csv
  biopull --driver postgres --host db.internal moodle secret moodle mouse mouse.csv
  biopull -- -admin -secret moodle keystroke keystroke.csv`,
		Args: exactArgs(extractArity),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, log, err := a.setup(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			biometric, out := args[3], args[4]

			tbl, err := e.Extract(cmd.Context(), biometric)
			if err != nil {
				return err
			}
			if err := tbl.WriteFile(out); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			log.Info().Str("output", out).Int("rows", len(tbl.Rows)).Msg("wrote csv")
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// NewCountCmd builds the `count` command.
func NewCountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [flags] [--] USER PASSWORD DATABASE BIOMETRIC",
		Short: "Print how many sessions match BIOMETRIC",
		Args:  exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := a.setup(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			n, err := e.Count(cmd.Context(), args[3])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}
