package cmd

import (
	"errors"
	"fmt"

	"github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
)

var setFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "hour, H",
		Usage: "alarm hour, 0-23",
	},
	cli.IntFlag{
		Name:  "minute, m",
		Usage: "alarm minute, 0-59",
	},
	cli.BoolFlag{
		Name:  "on",
		Usage: "arm the alarm",
	},
	cli.BoolFlag{
		Name:  "off",
		Usage: "disarm the alarm",
	},
}

// setParams builds the alarm.set request from the flags that were given.
func setParams(ctx *cli.Context) (*common.SetAlarmParams, error) {
	p := &common.SetAlarmParams{}
	if ctx.IsSet("hour") {
		h := ctx.Int("hour")
		p.Hour = &h
	}
	if ctx.IsSet("minute") {
		m := ctx.Int("minute")
		p.Minute = &m
	}
	on, off := ctx.Bool("on"), ctx.Bool("off")
	switch {
	case on && off:
		return nil, errors.New("--on and --off are mutually exclusive")
	case on || off:
		armed := on
		p.Armed = &armed
	}
	if p.Hour == nil && p.Minute == nil && p.Armed == nil {
		return nil, errors.New("nothing to set, use --hour, --minute, --on or --off")
	}
	return p, nil
}

func set(ctx *cli.Context) error {
	p, err := setParams(ctx)
	if err != nil {
		return reportErr(ctx, "set", "flags", err)
	}
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, "set", "dial", err)
	}
	defer c.Close()
	var s common.AlarmSettings
	if err := c.call(common.MethodSetAlarm, p, &s); err != nil {
		return reportErr(ctx, "set", "call", err)
	}
	fmt.Fprintf(stdout, "Alarm set to %s (%s)\n", clockTime(s.Hour, s.Minute), onOff(s.Armed))
	return nil
}
