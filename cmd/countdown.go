package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/oscalarm/oscalarm/cmd/common"
	shared "github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
)

var (
	// countdownTick is how often the bar advances.
	countdownTick = time.Second
	// countdownPoll is how often the daemon is asked whether the target moved.
	countdownPoll = 5 * time.Second
)

var errNothingScheduled = errors.New("nothing scheduled, the alarm is off")

// countdownTarget picks what to count down to: the running ring or snooze
// timer during a cycle, the next wake otherwise.
func countdownTarget(st *shared.StatusResult) (string, time.Time, error) {
	switch {
	case st.NextTimer != nil && st.Phase == "snoozing":
		return "Snooze", *st.NextTimer, nil
	case st.NextTimer != nil:
		return "Ringing", *st.NextTimer, nil
	case st.NextWake != nil:
		return "Alarm " + st.NextWake.Local().Format("15:04"), *st.NextWake, nil
	default:
		return "", time.Time{}, errNothingScheduled
	}
}

func countdown(ctx *cli.Context) error {
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, "countdown", "dial", err)
	}
	defer c.Close()
	var st shared.StatusResult
	if err := c.call(shared.MethodStatus, nil, &st); err != nil {
		return reportErr(ctx, "countdown", "status", err)
	}
	label, target, err := countdownTarget(&st)
	if err != nil {
		fmt.Fprintf(stdout, "oscalarm: %s\n", err)
		return nil
	}

	sctx, cancel := setupShutdownHandler()
	defer cancel()

	start := time.Now()
	p := mpb.NewWithContext(sctx, mpb.WithOutput(stdout), mpb.WithWidth(60))
	total := target.Sub(start)
	bar := common.InitCountdownBar(p, label, total)

	tick := time.NewTicker(countdownTick)
	defer tick.Stop()
	poll := time.NewTicker(countdownPoll)
	defer poll.Stop()

	moved := false
loop:
	for {
		select {
		case <-sctx.Done():
			break loop
		case now := <-tick.C:
			if !now.Before(target) {
				bar.SetTotal(-1, true)
				break loop
			}
			bar.SetCurrent(int64(now.Sub(start) / time.Second))
		case <-poll.C:
			var cur shared.StatusResult
			if err := c.call(shared.MethodStatus, nil, &cur); err != nil {
				continue
			}
			_, next, err := countdownTarget(&cur)
			if err != nil || !next.Equal(target) {
				st, moved = cur, true
				break loop
			}
		}
	}
	if !bar.Completed() {
		bar.Abort(false)
	}
	p.Wait()
	if moved {
		fmt.Fprintf(stdout, "Alarm %s\n", st.Phase)
	}
	return nil
}
