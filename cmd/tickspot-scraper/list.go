package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	ts "tickspot-scraper/internal/adapter/tickspot"
	"tickspot-scraper/internal/app"
	"tickspot-scraper/internal/domain"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Print time entries in a date window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		today := time.Now().UTC().Format("2006-01-02")
		if fromStr == "" {
			fromStr = today
		}

		client := app.NewTickspotClient(logger, cfg, nil)
		var end any
		if toStr != "" {
			end = toStr
		}

		printed := make(chan struct{})
		f, err := client.Entries(cmd.Context(), fromStr, end, entriesQuery(cmd), func(entries []domain.Entry, err error) {
			defer close(printed)
			if err != nil {
				return
			}
			printEntries(entries)
		})
		if err != nil {
			return err
		}
		if _, err := f.Await(cmd.Context()); err != nil {
			logger.Error("listing entries failed", slog.String("error", err.Error()))
			return err
		}
		<-printed
		return nil
	},
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Print the open client/project/task tree",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := app.NewTickspotClient(logger, cfg, nil)
		clients, err := client.ClientsProjectsTasks(cmd.Context()).Await(cmd.Context())
		if err != nil {
			logger.Error("listing clients failed", slog.String("error", err.Error()))
			return err
		}
		for _, c := range clients {
			fmt.Printf("%d\t%s\n", c.ID, c.Name)
			for _, p := range c.Projects {
				fmt.Printf("  %d\t%s\n", p.ID, p.Name)
				for _, t := range p.Tasks {
					fmt.Printf("    %d\t%s\n", t.ID, t.Name)
				}
			}
		}
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Create a time entry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		taskID, _ := f.GetInt64("task")
		hoursStr, _ := f.GetString("hours")
		date, _ := f.GetString("date")
		notes, _ := f.GetString("notes")
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		hours, err := decimal.NewFromString(hoursStr)
		if err != nil {
			return fmt.Errorf("invalid --hours %q: %w", hoursStr, err)
		}

		client := app.NewTickspotClient(logger, cfg, nil)
		fut, err := client.CreateEntry(cmd.Context(), taskID, hours, date, notes)
		if err != nil {
			return err
		}
		entry, err := fut.Await(cmd.Context())
		if err != nil {
			logger.Error("creating entry failed", slog.String("error", err.Error()))
			return err
		}
		if entry != nil {
			logger.Info("entry created", slog.Int64("id", entry.ID), slog.String("hours", entry.Hours.String()))
		}
		return nil
	},
}

func init() {
	entriesCmd.Flags().String("from", "", "Start date YYYY-MM-DD (default: today)")
	entriesCmd.Flags().String("to", "", "End date YYYY-MM-DD; when omitted, lists entries updated since --from")
	entriesCmd.Flags().Int64("project", 0, "Only entries on this project")
	entriesCmd.Flags().String("user-email", "", "Only entries by this user")

	logCmd.Flags().Int64("task", 0, "Task id")
	logCmd.Flags().String("hours", "", "Hours, e.g. 1.5")
	logCmd.Flags().String("date", "", "Date YYYY-MM-DD (default: today)")
	logCmd.Flags().String("notes", "", "Notes")
	_ = logCmd.MarkFlagRequired("task")
	_ = logCmd.MarkFlagRequired("hours")
}

func entriesQuery(cmd *cobra.Command) ts.EntriesQuery {
	var q ts.EntriesQuery
	if cmd.Flags().Changed("project") {
		q.ProjectID, _ = cmd.Flags().GetInt64("project")
	}
	q.UserEmail, _ = cmd.Flags().GetString("user-email")
	return q
}

func printEntries(entries []domain.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tHOURS\tTASK\tUSER\tNOTES")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date.Format("2006-01-02"), e.Hours.StringFixed(2), e.TaskName, e.UserEmail, e.Notes)
	}
	w.Flush()
}
