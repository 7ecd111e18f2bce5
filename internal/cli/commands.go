package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/render"
)

func (a *app) viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the todo list, recent log entries and any open clock",
		Args:  noArgs,
		RunE:  a.runView,
	}
	cmd.Flags().BoolP("scheduled", "s", false, "Also show scheduled tasks")
	return cmd
}

func (a *app) runView(cmd *cobra.Command, _ []string) error {
	opts, err := a.options(cmd, false)
	if err != nil {
		return err
	}
	ov, err := a.book.View(opts)
	if err != nil {
		return err
	}
	v := render.View{Todo: ov.Todo, Recent: ov.Recent, OpenFor: ov.OpenFor}
	if show, _ := cmd.Flags().GetBool("scheduled"); show {
		v.Scheduled = ov.Scheduled
	}
	a.out.View(v)
	return nil
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a task; tasks dated in the future or with repeat:N are scheduled",
		Args:  needTitle,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, true)
			if err != nil {
				return err
			}
			task, scheduled, err := a.book.Add(joinTitle(args), opts)
			if err != nil {
				return err
			}
			verb := "Added"
			if scheduled {
				verb = "Scheduled"
			}
			fmt.Fprintf(a.stdout, "%s %s\n", verb, a.out.Line(task))
			return nil
		},
	}
}

func (a *app) delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del ID",
		Short: "Delete a task from the todo list",
		Args:  exactlyOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.options(cmd, false); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.book.Del(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Deleted %s\n", a.out.Line(task))
			return nil
		},
	}
}

func (a *app) doCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "do ID",
		Short: "Move a task to the log, stamped now",
		Args:  exactlyOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, true)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			entry, err := a.book.Do(id, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Logged %s\n", a.out.Line(entry))
			return nil
		},
	}
}

func (a *app) logCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log TITLE...",
		Short: "Add a log entry stamped now",
		Args:  needTitle,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, true)
			if err != nil {
				return err
			}
			entry, err := a.book.Log(joinTitle(args), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Logged %s\n", a.out.Line(entry))
			return nil
		},
	}
}

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [TITLE...]",
		Short: "Close the last log entry, optionally amending its title",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, true)
			if err != nil {
				return err
			}
			entry, err := a.book.Done(joinTitle(args), opts)
			if err != nil {
				return err
			}
			line, err := a.out.Full(entry)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Closed %s\n", line)
			return nil
		},
	}
}

func (a *app) listCmd(use, short string, full bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [DATE] [+TAG|+~TAG]...",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, false)
			if err != nil {
				return err
			}
			recs, err := a.book.Entries(joinTitle(args), opts)
			if err != nil {
				return err
			}
			return a.out.List(recs, full)
		},
	}
}

func (a *app) calCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cal [DATE] [+TAG|+~TAG]...",
		Short: "List log entries grouped by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, false)
			if err != nil {
				return err
			}
			groups, err := a.book.Calendar(joinTitle(args), opts)
			if err != nil {
				return err
			}
			a.out.Calendar(groups)
			return nil
		},
	}
}

func (a *app) clockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clock [DATE] [+TAG|+~TAG]...",
		Short: "List log entries and total the time spent on them",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, false)
			if err != nil {
				return err
			}
			recs, sum, err := a.book.Clock(joinTitle(args), opts)
			if err != nil {
				return err
			}
			if err := a.out.List(recs, false); err != nil {
				return err
			}
			a.out.Clock(sum)
			return nil
		},
	}
}

func (a *app) catchCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "catch TITLE...",
		Short: "Add an entry to a collection",
		Args:  needTitle,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, true)
			if err != nil {
				return err
			}
			name, entry, err := a.book.Catch(to, joinTitle(args), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Caught in %s: %s\n", name, a.out.Line(entry))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Collection name (default from config)")
	return cmd
}

func (a *app) notesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes [NAME] [DATE] [+TAG|+~TAG]...",
		Short: "List a collection with notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options(cmd, false)
			if err != nil {
				return err
			}
			name, rest := splitCollection(args)
			recs, _, err := a.book.Notes(name, joinTitle(rest), opts)
			if err != nil {
				return err
			}
			return a.out.List(recs, true)
		},
	}
}

// splitCollection takes a leading collection name off args. Tags and dates
// are never names.
func splitCollection(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "+") {
		return "", args
	}
	if _, err := record.ParseDate(args[0]); err == nil {
		return "", args
	}
	return args[0], args[1:]
}

func (a *app) collectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List the configured collections",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.options(cmd, false); err != nil {
				return err
			}
			a.out.Collections(a.book.Config())
			return nil
		},
	}
}
