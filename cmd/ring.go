package cmd

import (
	"fmt"

	"github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
)

func snooze(ctx *cli.Context) error {
	return ringCommand(ctx, "snooze", common.MethodSnooze)
}

func stop(ctx *cli.Context) error {
	return ringCommand(ctx, "stop", common.MethodStop)
}

// ringCommand sends a snooze or stop request and reports the phase the
// alarm ended up in.
func ringCommand(ctx *cli.Context, name, method string) error {
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, name, "dial", err)
	}
	defer c.Close()
	if err := c.call(method, nil, nil); err != nil {
		return reportErr(ctx, name, "call", err)
	}
	var st common.StatusResult
	if err := c.call(common.MethodStatus, nil, &st); err != nil {
		return reportErr(ctx, name, "status", err)
	}
	if st.IsRinging {
		fmt.Fprintf(stdout, "Alarm %s, snooze %d of %d\n", st.Phase, st.SnoozeCount, st.Settings.MaxSnoozes)
		return nil
	}
	fmt.Fprintf(stdout, "Alarm %s\n", st.Phase)
	return nil
}
