package cmd

import "time"

const (
	// DEF_CALL_TIMEOUT bounds a single RPC call to the daemon.
	DEF_CALL_TIMEOUT = time.Second * 5
	// DEF_HISTORY_LIMIT is the number of journal entries shown by history.
	DEF_HISTORY_LIMIT = 20
)

const DESCRIPTION = `
oscalarm is an alarm clock that lives on the network. The daemon
keeps the alarm, rings it, counts snoozes and talks to a remote
peer over OSC parameters; this command line drives the daemon
through its JSON-RPC endpoint.
`

const (
	DaemonDescription = `The daemon command runs the alarm engine in the foreground.
It binds the OSC listen address, pushes the stored settings to
the peer and serves the JSON-RPC endpoint until interrupted.

Example:
        oscalarm daemon

`
	StatusDescription = `The status command prints the current phase, the alarm time,
the next wake and timer deadlines and the snooze counter.

Example:
        oscalarm status
        oscalarm status --json

`
	SetDescription = `The set command changes the alarm time and whether it is armed.
Values are clamped to a valid clock time; flags left out keep
their current value.

Example:
        oscalarm set --hour 7 --minute 30 --on
        oscalarm set --off

`
	SnoozeDescription = `The snooze command pauses a ringing alarm for the snooze
duration. Outside a ring cycle it does nothing.

Example:
        oscalarm snooze

`
	StopDescription = `The stop command ends the current ring cycle. An armed alarm
waits for the next day.

Example:
        oscalarm stop

`
	TimersDescription = `The timers command prints or changes the snooze limit and the
ring and snooze durations in minutes.

Example:
        oscalarm timers
        oscalarm timers --max-snoozes 3 --ring 10 --snooze 5

`
	SendDescription = `The send command sends one raw parameter to the peer. The
value type is inferred from its text unless --type is given.

Example:
        oscalarm send /avatar/parameters/Test 0.5
        oscalarm send --type int /avatar/parameters/Count 3

`
	SyncDescription = `The sync command reloads the stored settings and pushes them
to the peer.

Example:
        oscalarm sync

`
	HistoryDescription = `The history command lists the most recent alarm transitions
recorded by the daemon, newest first.

Example:
        oscalarm history --limit 5

`
	CountdownDescription = `The countdown command draws a bar that fills until the next
wake or, during a ring cycle, until the current ring or snooze
timer ends.

Example:
        oscalarm countdown

`
	WatchDescription = `The watch command subscribes to the daemon's push
notifications and prints every settings change, firing change
and phase transition until interrupted.

Example:
        oscalarm watch

`
)
