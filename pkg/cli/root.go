package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/TechXTT/biopull/internal/logger"
	"github.com/TechXTT/biopull/pkg/config"
	"github.com/TechXTT/biopull/pkg/extract"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrUsage is returned when a command gets the wrong number of arguments.
var ErrUsage = errors.New("wrong number of arguments")

// extractArity is the positional count of the root form.
const extractArity = 5

func version() string {
	return "v1.0.0"
}

// app carries what every command needs once flags are parsed.
type app struct {
	v   *viper.Viper
	out io.Writer
	err io.Writer
}

// setup loads the config, applies the positional credentials and builds the
// logger and extractor.
func (a *app) setup(user, password, database string) (*extract.Extractor, zerolog.Logger, error) {
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg.User, cfg.Password, cfg.Database = user, password, database
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(a.err, cfg.LogLevel)
	e := extract.New(cfg, log)
	e.Progress = a.out
	return e, log, nil
}

// exactArgs fails with ErrUsage unless exactly n args are given.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: want %d, got %d", ErrUsage, n, len(args))
		}
		return nil
	}
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version())
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// NewRootCmd builds the top–level `biopull` command.
func NewRootCmd(stdout, stderr io.Writer) (*cobra.Command, error) {
	a := &app{v: viper.New(), out: stdout, err: stderr}

	root := NewExtractCmd(a)
	root.Version = version()
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.String("driver", "", "Database driver: mysql, postgres, pgx or sqlite (default mysql)")
	pf.String("host", "", "Database host (default localhost)")
	pf.Int("port", 0, "Database port (default depends on driver)")
	pf.String("prefix", "", "Moodle table prefix (default mdl_)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (default info)")
	pf.String("email", "", "Only extract sessions belonging to this user email")
	for key, flag := range map[string]string{
		config.KeyDriver:   "driver",
		config.KeyHost:     "host",
		config.KeyPort:     "port",
		config.KeyPrefix:   "prefix",
		config.KeyLogLevel: "log-level",
		config.KeyEmail:    "email",
	} {
		if err := a.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag --%s: %w", flag, err)
		}
	}

	root.AddCommand(NewCountCmd(a))
	root.AddCommand(NewVersionCmd())
	root.InitDefaultHelpCmd()
	root.InitDefaultCompletionCmd()
	return root, nil
}

// routeArgs ends flag parsing in front of a leading positional that names a
// subcommand when that subcommand rejects the remaining args but the root
// form accepts the whole list, so USER may be "version" or "help".
func routeArgs(root *cobra.Command, args []string) []string {
	i := firstPositional(root, args)
	if i < 0 || len(args)-i != extractArity {
		return args
	}
	sub, _, err := root.Find(args[i : i+1])
	if err != nil || sub == root {
		return args
	}
	if sub.Args != nil && sub.Args(sub, args[i+1:]) == nil {
		return args
	}
	routed := make([]string, 0, len(args)+1)
	routed = append(routed, args[:i]...)
	routed = append(routed, "--")
	return append(routed, args[i:]...)
}

// firstPositional returns the index of the first arg that is neither a
// root flag nor a flag value, or -1.
func firstPositional(root *cobra.Command, args []string) int {
	flags := root.PersistentFlags()
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return -1
		}
		if a == "-" || !strings.HasPrefix(a, "-") {
			return i
		}
		if strings.Contains(a, "=") {
			continue
		}
		name := strings.TrimLeft(a, "-")
		f := flags.Lookup(name)
		if !strings.HasPrefix(a, "--") {
			f = nil
			if len(name) == 1 {
				f = flags.ShorthandLookup(name)
			}
		}
		if f != nil && f.NoOptDefVal == "" {
			i++
		}
	}
	return -1
}

// Execute runs biopull with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root, err := NewRootCmd(stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	root.SetArgs(routeArgs(root, args))
	cmd, err := root.ExecuteC()
	if err != nil {
		if errors.Is(err, ErrUsage) && cmd != nil {
			fmt.Fprint(stderr, cmd.UsageString())
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
