package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oscalarm/oscalarm/cmd/common"
	shared "github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
)

var historyFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "limit, n",
		Usage: "number of entries to show",
		Value: DEF_HISTORY_LIMIT,
	},
}

func history(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, "history", "dial", err)
	}
	defer c.Close()
	var res shared.HistoryResult
	if err := c.call(shared.MethodHistory, &shared.HistoryParams{Limit: ctx.Int("limit")}, &res); err != nil {
		return reportErr(ctx, "history", "call", err)
	}
	if len(res.Entries) == 0 {
		fmt.Fprintln(stdout, "oscalarm: no alarm history yet")
		return nil
	}
	fmt.Fprint(stdout, historyTable(res.Entries, time.Now()))
	return nil
}

// historyColumns are the table headers and their widths.
var historyColumns = []struct {
	name  string
	width int
}{
	{"When", 18}, {"Cause", 13}, {"Transition", 23}, {"Snz", 5}, {"Cycle", 10},
}

func historyRow(cells ...string) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, col := range historyColumns {
		c := cells[i]
		if len(c) > col.width-2 {
			c = c[:col.width-2]
		}
		b.WriteString(common.Beaut(c, col.width))
		b.WriteByte('|')
	}
	b.WriteByte('\n')
	return b.String()
}

func historyTable(entries []shared.HistoryEntry, now time.Time) string {
	names := make([]string, len(historyColumns))
	width := 1
	for i, col := range historyColumns {
		names[i] = col.name
		width += col.width + 1
	}
	rule := strings.Repeat("-", width) + "\n"

	var b strings.Builder
	b.WriteString(rule)
	b.WriteString(historyRow(names...))
	b.WriteString(rule)
	for _, e := range entries {
		b.WriteString(historyRow(
			humanize.RelTime(e.At, now, "ago", "from now"),
			e.Cause,
			e.From+" -> "+e.To,
			fmt.Sprint(e.SnoozeCount),
			e.CycleID,
		))
	}
	b.WriteString(rule)
	return b.String()
}
