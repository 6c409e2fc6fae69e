package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
)

var statusFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "json, j",
		Usage: "print the raw status as JSON",
	},
}

func status(ctx *cli.Context) error {
	if ctx.Args().Present() {
		return reportErr(ctx, "status", "args", fmt.Errorf("unexpected argument %q", ctx.Args().First()))
	}
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, "status", "dial", err)
	}
	defer c.Close()
	var st common.StatusResult
	if err := c.call(common.MethodStatus, nil, &st); err != nil {
		return reportErr(ctx, "status", "call", err)
	}
	if ctx.Bool("json") {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(&st)
	}
	printStatus(&st, time.Now())
	return nil
}

func printStatus(st *common.StatusResult, now time.Time) {
	s := st.Settings
	fmt.Fprintf(stdout, "Phase:        %s\n", st.Phase)
	fmt.Fprintf(stdout, "Alarm:        %s (%s)\n", clockTime(s.Hour, s.Minute), onOff(s.Armed))
	if st.NextWake != nil {
		fmt.Fprintf(stdout, "Next wake:    %s (%s)\n", st.NextWake.Local().Format("Mon 15:04"), humanize.RelTime(*st.NextWake, now, "ago", "from now"))
	}
	if st.NextTimer != nil {
		fmt.Fprintf(stdout, "Timer ends:   %s (%s)\n", st.NextTimer.Local().Format("15:04:05"), humanize.RelTime(*st.NextTimer, now, "ago", "from now"))
	}
	if st.IsRinging {
		fmt.Fprintf(stdout, "Snoozes:      %d of %d\n", st.SnoozeCount, s.MaxSnoozes)
	}
	fmt.Fprintf(stdout, "Durations:    ring %dm, snooze %dm, max %d snoozes\n", s.RingMinutes, s.SnoozeMinutes, s.MaxSnoozes)
	fmt.Fprintf(stdout, "Buttons:      snooze %s, stop %s\n", pressed(st.SnoozePressed), pressed(st.StopPressed))
	fmt.Fprintf(stdout, "Last inbound: %s\n", since(st.LastInboundAt, now))
	fmt.Fprintf(stdout, "Last sent:    %s\n", since(st.LastOutboundAt, now))
	fmt.Fprintf(stdout, "Timers:       %s armed, %s cancelled\n", humanize.Comma(int64(st.TimersArmed)), humanize.Comma(int64(st.TimersCancelled)))
}

func clockTime(h, m int) string {
	return fmt.Sprintf("%02d:%02d", h, m)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func pressed(b bool) string {
	if b {
		return "pressed"
	}
	return "released"
}

func since(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}
