package cmd

import (
	"fmt"

	"github.com/oscalarm/oscalarm/cmd/common"
	shared "github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
)

var versionFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "daemon, d",
		Usage: "also ask the running daemon for its version",
	},
}

func version(ctx *cli.Context) error {
	if err := common.GetVersion(ctx); err != nil {
		return err
	}
	if !ctx.Bool("daemon") {
		return nil
	}
	c, err := dial(ctx)
	if err != nil {
		return reportErr(ctx, "version", "dial", err)
	}
	defer c.Close()
	var v shared.VersionResult
	if err := c.call(shared.MethodVersion, nil, &v); err != nil {
		return reportErr(ctx, "version", "call", err)
	}
	fmt.Fprintf(stdout, "Daemon: %s", v.Version)
	if v.BuildType != "" {
		fmt.Fprintf(stdout, "-%s", v.BuildType)
	}
	if v.Commit != "" {
		fmt.Fprintf(stdout, " (%s)", v.Commit)
	}
	fmt.Fprintln(stdout)
	return nil
}
