package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/amirbrooks/logbook/internal/config"
	"github.com/amirbrooks/logbook/internal/datespec"
	"github.com/amirbrooks/logbook/internal/logbook"
	"github.com/amirbrooks/logbook/internal/query"
	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/render"
	"github.com/amirbrooks/logbook/internal/schedule"
	"github.com/amirbrooks/logbook/internal/store"
	"github.com/amirbrooks/logbook/internal/tagexpr"
	"github.com/amirbrooks/logbook/internal/title"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitData     = 5
	ExitInternal = 10
)

var errUsage = errors.New("usage")

type usageError struct{ msg string }

func (e *usageError) Error() string        { return e.msg }
func (e *usageError) Is(target error) bool { return target == errUsage }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// GlobalFlags are the modifiers every command accepts.
type GlobalFlags struct {
	Clock     string
	File      string
	Prev      string
	After     string
	Before    string
	Yesterday int
	Today     bool
	Note      bool
	LongNote  bool
	Config    string
	Verbose   bool
	Plain     bool
}

// app is one invocation: its streams, flags and the book built from them.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	gf     GlobalFlags
	logger *zap.Logger
	book   *logbook.Book
	out    *render.Printer
}

func Run(args []string) int {
	return run(args, os.Stdin, os.Stdout, os.Stderr, time.Now)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, now func() time.Time) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, now: now}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	cmd, err := root.ExecuteC()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err == nil {
		return ExitOK
	}
	path := "logbook"
	if cmd != nil && cmd != root {
		path = cmd.CommandPath()
		fmt.Fprintf(stderr, "logbook: %s: %v\n", cmd.Name(), err)
	} else {
		fmt.Fprintf(stderr, "logbook: %v\n", err)
	}
	code := exitCode(err)
	if code == ExitUsage {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", path)
	}
	return code
}

// exitCode maps err to the exit table. Storage failures come first: a
// corrupt stored record wraps record.ErrInvalid but is not a usage error.
func exitCode(err error) int {
	switch {
	case errors.Is(err, store.ErrRead),
		errors.Is(err, store.ErrWrite):
		return ExitInternal
	case errors.Is(err, errUsage),
		errors.Is(err, datespec.ErrInvalid),
		errors.Is(err, tagexpr.ErrMalformed),
		errors.Is(err, record.ErrInvalid),
		errors.Is(err, logbook.ErrNoNote):
		return ExitUsage
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, config.ErrUnknownCollection):
		return ExitNotFound
	case errors.Is(err, query.ErrNegativeDuration),
		errors.Is(err, schedule.ErrAmbiguous):
		return ExitData
	default:
		return ExitInternal
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "logbook",
		Short: "Keep tasks, a time log and note collections in plain YAML files",
		Long: `logbook keeps a todo list, a timestamped log and named note collections
as YAML record lists.

Titles look like:

  2016-07-04 Draft the report +work due:2016-07-08 client:acme

Queries take +tag to require a tag and +~tag to exclude one.

Run without a command to view the todo list and the recent log.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		Args:              noArgs,
		PersistentPreRunE: a.setup,
		RunE:              a.runView,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&a.gf.Clock, "clock", "c", "", "Minutes clocked (MINUTES or H:MM)")
	pf.StringVarP(&a.gf.File, "file", "f", "", "Log file to use instead of the configured one")
	pf.StringVarP(&a.gf.Prev, "prev", "p", "", "Minutes elapsed since start (MINUTES or H:MM)")
	pf.StringVarP(&a.gf.After, "after", "a", "", "Start date of list range (YYYY-MM-DD)")
	pf.StringVarP(&a.gf.Before, "before", "b", "", "End date of list range (YYYY-MM-DD)")
	pf.IntVarP(&a.gf.Yesterday, "yesterday", "y", 0, "Use the date from DAYS ago")
	pf.BoolVarP(&a.gf.Today, "today", "t", false, "Use today's date")
	pf.BoolVarP(&a.gf.Note, "note", "n", false, "Read a note from stdin")
	pf.BoolVar(&a.gf.LongNote, "long-note", false, "Read a note from stdin and store it in its own file")
	pf.StringVar(&a.gf.Config, "config", "", "Config file (default $LOGBOOK_CONFIG or ~/.logbook.yml)")
	pf.BoolVarP(&a.gf.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&a.gf.Plain, "plain", false, "Disable colour")

	root.AddCommand(
		a.viewCmd(),
		a.addCmd(),
		a.delCmd(),
		a.doCmd(),
		a.logCmd(),
		a.doneCmd(),
		a.listCmd("ls", "List log entries, one line each", false),
		a.listCmd("list", "List log entries with clocks and notes", true),
		a.calCmd(),
		a.clockCmd(),
		a.catchCmd(),
		a.notesCmd(),
		a.collectionsCmd(),
	)
	return root
}

// setup builds the logger, loads the config and opens the book.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.gf.Verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger.Named(cmd.Name())

	path := a.gf.Config
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.logger.Debug("config loaded", zap.String("path", path), zap.String("log", cfg.Log), zap.String("todo", cfg.Todo))
	a.book = logbook.New(cfg, a.logger).WithClock(a.now)
	a.out = render.New(a.stdout, cfg.NotesDir, a.gf.Plain)
	return nil
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("unknown command %q", args[0])
	}
	return nil
}

func needTitle(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return usagef("a title is required")
	}
	return nil
}

func exactlyOneID(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usagef("expected one task ID, got %d arguments", len(args))
	}
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, usagef("invalid task ID %q", s)
	}
	return id, nil
}

// options resolves the modifiers. withNote tells whether the command can
// carry a note; only then is stdin read.
func (a *app) options(cmd *cobra.Command, withNote bool) (logbook.Options, error) {
	opts := logbook.Options{
		Dates: datespec.Spec{
			After:  a.gf.After,
			Before: a.gf.Before,
			Today:  a.gf.Today,
		},
		File: a.gf.File,
	}
	if cmd.Flags().Changed("yesterday") {
		days := a.gf.Yesterday
		opts.Dates.DaysAgo = &days
	}
	if a.gf.Clock != "" {
		m, err := title.ParseClock(a.gf.Clock)
		if err != nil {
			return logbook.Options{}, err
		}
		opts.Clock = &m
	}
	if a.gf.Prev != "" {
		m, err := title.ParseClock(a.gf.Prev)
		if err != nil {
			return logbook.Options{}, err
		}
		opts.Prev = &m
	}
	if a.gf.Note || a.gf.LongNote {
		if !withNote {
			return logbook.Options{}, fmt.Errorf("%w: %s", logbook.ErrNoNote, cmd.Name())
		}
		fmt.Fprintln(a.stderr, "Enter note text (end with Ctrl-D):")
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return logbook.Options{}, fmt.Errorf("read note: %w", err)
		}
		if strings.TrimSpace(string(b)) == "" {
			return logbook.Options{}, fmt.Errorf("%w: note is empty", record.ErrInvalid)
		}
		opts.Note = string(b)
		opts.LongNote = a.gf.LongNote
	}
	return opts, nil
}

func joinTitle(args []string) string {
	return strings.Join(args, " ")
}
