package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/oscalarm/oscalarm/cmd/common"
	sharedcommon "github.com/oscalarm/oscalarm/common"
	"github.com/urfave/cli"
)

// BuildArgs carries the build-time metadata injected through ldflags.
type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

// ErrReported is returned by a command that has already printed its error.
// Callers should exit non-zero without printing it again.
var ErrReported = errors.New("error already reported")

// stdout receives all regular command output.
var stdout io.Writer = os.Stdout

var buildInfo BuildArgs

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "rpc",
		Usage:  "daemon JSON-RPC address (host:port)",
		EnvVar: sharedcommon.RPCAddrEnv,
	},
	cli.StringFlag{
		Name:   "secret",
		Usage:  "bearer token for the JSON-RPC endpoint",
		EnvVar: sharedcommon.RPCSecretEnv,
	},
}

func Execute(args []string, bArgs BuildArgs) error {
	buildInfo = bArgs
	app := cli.App{
		Name:                  "oscalarm",
		HelpName:              "oscalarm",
		Usage:                 "An alarm clock driven over OSC.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "oscalarm [global options] <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "daemon",
				Usage:              "runs the alarm daemon in the foreground",
				Action:             runDaemon,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        DaemonDescription,
			},
			{
				Name:               "status",
				Aliases:            []string{"s"},
				Usage:              "shows the alarm state",
				Action:             status,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        StatusDescription,
				Flags:              statusFlags,
			},
			{
				Name:               "set",
				Usage:              "sets the alarm time and arms or disarms it",
				Action:             set,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        SetDescription,
				Flags:              setFlags,
			},
			{
				Name:               "snooze",
				Usage:              "snoozes a ringing alarm",
				Action:             snooze,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        SnoozeDescription,
			},
			{
				Name:               "stop",
				Usage:              "stops the current ring cycle",
				Action:             stop,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        StopDescription,
			},
			{
				Name:                   "timers",
				Usage:                  "shows or changes ring and snooze durations",
				Action:                 timers,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            TimersDescription,
				Flags:                  timersFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "send",
				Usage:              "sends a raw parameter to the peer",
				UsageText:          "send [--type bool|float|int|string] <path> <value>",
				Action:             send,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        SendDescription,
				Flags:              sendFlags,
			},
			{
				Name:               "sync",
				Usage:              "reloads the stored settings and pushes them to the peer",
				Action:             syncSettings,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        SyncDescription,
			},
			{
				Name:                   "history",
				Aliases:                []string{"l"},
				Usage:                  "lists recent alarm transitions",
				Action:                 history,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            HistoryDescription,
				Flags:                  historyFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "countdown",
				Aliases:            []string{"c"},
				Usage:              "draws a bar until the next wake or timer",
				Action:             countdown,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        CountdownDescription,
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "prints push notifications from the daemon",
				Action:             watch,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        WatchDescription,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of oscalarm",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             version,
				Flags:              versionFlags,
			},
		},
		Action:      common.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}

// reportErr prints err in the "<app>: <cmd>[<action>]: <err>" form and
// returns ErrReported.
func reportErr(ctx *cli.Context, cmd, action string, err error) error {
	common.PrintRuntimeErr(ctx, cmd, action, err)
	return ErrReported
}
