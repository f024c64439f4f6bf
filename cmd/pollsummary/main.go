// Command pollsummary prints the consensus of one poll as plain text, for
// operators who want the answer without the HTTP API.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/kwickslot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/kwickslot/internal/config"
	"github.com/vncsmyrnk/kwickslot/internal/core/consensus"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
	"github.com/vncsmyrnk/kwickslot/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}

	var pg config.PostgresConfig
	var pollID string

	flag.StringVar(&pg.Host, "db-host", os.Getenv("POSTGRES_HOST"), "Database host")
	flag.StringVar(&pg.Port, "db-port", os.Getenv("POSTGRES_PORT"), "Database port")
	flag.StringVar(&pg.User, "db-user", os.Getenv("POSTGRES_USER"), "Database user")
	flag.StringVar(&pg.Password, "db-pass", os.Getenv("POSTGRES_PASSWORD"), "Database password")
	flag.StringVar(&pg.DB, "db-name", os.Getenv("POSTGRES_DB"), "Database name")
	flag.StringVar(&pollID, "poll", "", "Poll ID")
	flag.Parse()

	if pg.Port == "" {
		pg.Port = "5432"
	}
	if pollID == "" {
		slog.Error("-poll is required")
		os.Exit(2)
	}

	db, err := sql.Open("postgres", pg.ConnString())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := services.NewPollService(postgres.NewPollRepository(db)).GetResults(ctx, pollID)
	if err != nil {
		slog.Error("failed to load poll results", "poll_id", pollID, "error", err)
		os.Exit(1)
	}

	if err := writeSummary(os.Stdout, res, time.Now()); err != nil {
		slog.Error("failed to write summary", "error", err)
		os.Exit(1)
	}
}

func writeSummary(out io.Writer, res *ports.PollResults, now time.Time) error {
	fmt.Fprintf(out, "%s (%s)\n", res.Poll.Name, res.Status)
	fmt.Fprintf(out, "participants: %d\n", res.Consensus.Respondents)
	if res.Poll.ExpiresAt != nil {
		fmt.Fprintf(out, "expires: %s\n", humanize.RelTime(*res.Poll.ExpiresAt, now, "ago", "from now"))
	}

	if len(res.Consensus.BestDates) == 0 {
		fmt.Fprintln(out, "best dates: no perfect dates yet")
	} else {
		labels := make([]string, 0, len(res.Consensus.BestDates))
		for _, d := range res.Consensus.BestDates {
			labels = append(labels, d.Label())
		}
		fmt.Fprintf(out, "best dates: %s\n", strings.Join(labels, ", "))
	}

	rows := res.Consensus.Rows()
	if len(rows) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DATE\tMORNING\tAFTERNOON\tEVENING\t")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s", row.Label)
		for _, cell := range row.Slots {
			fmt.Fprintf(tw, "\t%s", cellText(cell, res.Consensus.Respondents))
		}
		fmt.Fprintln(tw, "\t")
	}
	return tw.Flush()
}

func cellText(cell consensus.SlotCell, respondents int) string {
	if cell.Level == consensus.LevelNone {
		return "-"
	}
	text := fmt.Sprintf("%d/%d", cell.Count, respondents)
	if cell.Level == consensus.LevelFull {
		text += " *"
	}
	return text
}
