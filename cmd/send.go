package cmd

import (
	"fmt"

	"github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
)

var sendFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "type, t",
		Usage: "value type: bool, float, int or string (inferred when empty)",
	},
}

func send(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return reportErr(ctx, "send", "args", fmt.Errorf("send takes a path and a value, got %d arguments", ctx.NArg()))
	}
	p := &common.SendParams{
		Path:  ctx.Args().Get(0),
		Value: ctx.Args().Get(1),
		Type:  ctx.String("type"),
	}
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, "send", "dial", err)
	}
	defer c.Close()
	if err := c.call(common.MethodSendParam, p, nil); err != nil {
		return reportErr(ctx, "send", "call", err)
	}
	fmt.Fprintf(stdout, "Sent %s = %s\n", p.Path, p.Value)
	return nil
}

func syncSettings(ctx *cli.Context) error {
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, "sync", "dial", err)
	}
	defer c.Close()
	var s common.AlarmSettings
	if err := c.call(common.MethodLoadAndSend, nil, &s); err != nil {
		return reportErr(ctx, "sync", "call", err)
	}
	fmt.Fprintf(stdout, "Pushed %s (%s) to the peer\n", clockTime(s.Hour, s.Minute), onOff(s.Armed))
	return nil
}
