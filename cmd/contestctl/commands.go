package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/weekly-contest/db"
	"github.com/Dosada05/weekly-contest/queue"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/Dosada05/weekly-contest/services"
	"github.com/Dosada05/weekly-contest/weeks"
	"github.com/urfave/cli/v2"
)

var databaseURLFlag = &cli.StringFlag{
	Name:     "database-url",
	Usage:    "Postgres DSN",
	EnvVars:  []string{"DATABASE_URL"},
	Required: true,
}

func newApp(logger *slog.Logger) *cli.App {
	return &cli.App{
		Name:  "contestctl",
		Usage: "weekly contest operator tools",
		Commands: []*cli.Command{
			weekCommand(),
			transitionCommand(logger),
			exportCommand(),
			dbCommand(),
			queueCommand(logger),
		},
	}
}

func parseDay(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", raw)
	}
	return t, nil
}

func weekCommand() *cli.Command {
	return &cli.Command{
		Name:  "week",
		Usage: "print the week interval label and bounds",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "offset", Usage: "weeks from the current one"},
			&cli.StringFlag{Name: "date", Usage: "reference date (YYYY-MM-DD), defaults to today UTC"},
		},
		Action: func(c *cli.Context) error {
			now := time.Now().UTC()
			if raw := c.String("date"); raw != "" {
				d, err := parseDay(raw)
				if err != nil {
					return err
				}
				now = d
			}
			start, end := weeks.Bounds(now, c.Int("offset"))
			fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n",
				weeks.Label(start, end), start.Format(time.RFC3339), end.Format(time.RFC3339Nano))
			return nil
		},
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	return db.Connect(c.String("database-url"), 5*time.Second)
}

func transitionCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "transition",
		Usage: "run the weekly transition now (or enqueue it)",
		Flags: []cli.Flag{
			databaseURLFlag,
			&cli.StringFlag{Name: "week", Usage: "target week start (Monday, YYYY-MM-DD); defaults to the current Monday"},
			&cli.BoolFlag{Name: "dry-run", Usage: "only report what would change"},
			&cli.BoolFlag{Name: "enqueue", Usage: "insert a queue job instead of running in-process"},
		},
		Action: func(c *cli.Context) error {
			var target time.Time
			if raw := c.String("week"); raw != "" {
				d, err := parseDay(raw)
				if err != nil {
					return err
				}
				target = d
			}

			if c.Bool("enqueue") {
				if target.IsZero() {
					target = weeks.MondayUTC(time.Now())
				}
				q, err := queue.NewService(c.Context, c.String("database-url"), nil, logger, queue.Options{})
				if err != nil {
					return err
				}
				defer q.Stop(context.Background())
				id, duplicate, err := q.EnqueueTransition(c.Context, target, c.Bool("dry-run"))
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "job %d enqueued (duplicate: %t)\n", id, duplicate)
				return nil
			}

			conn, err := openDB(c)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := services.NewTransitionService(
				repositories.NewPostgresRPCRepository(conn),
				repositories.NewPostgresParticipantRepository(conn),
				nil, nil, logger,
			)
			res, err := svc.Run(c.Context, target, c.Bool("dry-run"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "week %s dry_run=%t\n", res.TargetWeekStart.Format("2006-01-02"), res.DryRun)
			for _, st := range sortedStatuses(res.Before, res.After) {
				fmt.Fprintf(c.App.Writer, "  %-14s %4d -> %4d\n", st, res.Before[st], res.After[st])
			}
			fmt.Fprintf(c.App.Writer, "%s\n", res.Raw)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "export an admin tab to XLSX",
		Flags: []cli.Flag{
			databaseURLFlag,
			&cli.StringFlag{Name: "tab", Value: string(services.TabAll)},
			&cli.StringFlag{Name: "country"},
			&cli.StringFlag{Name: "week-interval"},
			&cli.StringFlag{Name: "timezone", Value: "UTC", EnvVars: []string{"EXPORT_TIMEZONE"}},
			&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Required: true},
		},
		Action: func(c *cli.Context) error {
			tab, err := services.ParseTab(c.String("tab"))
			if err != nil {
				return fmt.Errorf("%w: %s", err, c.String("tab"))
			}
			loc, err := time.LoadLocation(c.String("timezone"))
			if err != nil {
				return err
			}

			conn, err := openDB(c)
			if err != nil {
				return err
			}
			defer conn.Close()

			f, err := os.Create(c.Path("out"))
			if err != nil {
				return err
			}
			svc := services.NewExportService(repositories.NewPostgresParticipantRepository(conn), loc)
			n, err := svc.ExportTab(c.Context, services.TabQuery{
				Tab:          tab,
				Country:      c.String("country"),
				WeekInterval: c.String("week-interval"),
			}, f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return errors.Join(err, os.Remove(c.Path("out")))
			}
			fmt.Fprintf(c.App.Writer, "exported %d participants to %s\n", n, c.Path("out"))
			return nil
		},
	}
}

func dbCommand() *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "service schema",
		Subcommands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "create the tables this service owns",
				Flags: []cli.Flag{databaseURLFlag},
				Action: func(c *cli.Context) error {
					conn, err := openDB(c)
					if err != nil {
						return err
					}
					defer conn.Close()
					if err := db.ApplySchema(c.Context, conn); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "schema applied")
					return nil
				},
			},
			{
				Name:  "schema",
				Usage: "print the schema",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprint(c.App.Writer, db.Schema())
					return err
				},
			},
		},
	}
}

func queueCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "job queue maintenance",
		Subcommands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "create or upgrade the queue tables",
				Flags: []cli.Flag{databaseURLFlag},
				Action: func(c *cli.Context) error {
					versions, err := queue.Migrate(c.Context, c.String("database-url"), logger)
					if err != nil {
						return err
					}
					if len(versions) == 0 {
						fmt.Fprintln(c.App.Writer, "queue schema is up to date")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "applied queue migrations: %v\n", versions)
					return nil
				},
			},
		},
	}
}
