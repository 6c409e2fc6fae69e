package cmd

import (
	"fmt"

	"github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
)

var timersFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "max-snoozes, x",
		Usage: "snoozes allowed per ring cycle, 1-20",
	},
	cli.IntFlag{
		Name:  "ring, r",
		Usage: "minutes an alarm rings before it snoozes itself, 1-60",
	},
	cli.IntFlag{
		Name:  "snooze, s",
		Usage: "minutes a snooze lasts, 1-30",
	},
}

func timersParams(ctx *cli.Context) *common.SetTimersParams {
	var p common.SetTimersParams
	changed := false
	if ctx.IsSet("max-snoozes") {
		v := ctx.Int("max-snoozes")
		p.MaxSnoozes, changed = &v, true
	}
	if ctx.IsSet("ring") {
		v := ctx.Int("ring")
		p.RingMinutes, changed = &v, true
	}
	if ctx.IsSet("snooze") {
		v := ctx.Int("snooze")
		p.SnoozeMinutes, changed = &v, true
	}
	if !changed {
		return nil
	}
	return &p
}

func timers(ctx *cli.Context) error {
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, "timers", "dial", err)
	}
	defer c.Close()
	var res common.TimersResult
	if p := timersParams(ctx); p != nil {
		err = c.call(common.MethodSetTimers, p, &res)
	} else {
		err = c.call(common.MethodGetTimers, nil, &res)
	}
	if err != nil {
		return reportErr(ctx, "timers", "call", err)
	}
	fmt.Fprintf(stdout, "Max snoozes: %d\nRing:        %d min\nSnooze:      %d min\n",
		res.MaxSnoozes, res.RingMinutes, res.SnoozeMinutes)
	return nil
}
