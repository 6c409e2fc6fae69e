package cmd

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	cmdcommon "github.com/oscalarm/oscalarm/cmd/common"
	shared "github.com/oscalarm/oscalarm/common"
)

func TestExecuteVersion(t *testing.T) {
	if _, err := runCLI(t, "version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(cmdcommon.VersionCmdStr, "oscalarm 1.2.3-test (") {
		t.Fatalf("got %q, want oscalarm 1.2.3-test prefix", cmdcommon.VersionCmdStr)
	}
}

func TestVersionDaemon(t *testing.T) {
	f := newDaemonFixture(t)
	out, err := f.run(t, "version", "--daemon")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if want := "Daemon: 1.2.3-test (abc123)"; !strings.Contains(out, want) {
		t.Fatalf("got %q, want it to contain %q", out, want)
	}
}

func TestStatusCommand(t *testing.T) {
	f := newDaemonFixture(t)
	out, err := f.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{
		"Phase:        idle",
		"Alarm:        07:00 (off)",
		"Durations:    ring 15m, snooze 9m, max 5 snoozes",
		"Buttons:      snooze released, stop released",
		"Last inbound: never",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Next wake") {
		t.Errorf("idle alarm should not print a next wake:\n%s", out)
	}
}

func TestStatusJSON(t *testing.T) {
	f := newDaemonFixture(t)
	if _, err := f.run(t, "set", "--hour", "6", "--minute", "30", "--on"); err != nil {
		t.Fatal(err)
	}
	out, err := f.run(t, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var st shared.StatusResult
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if st.Phase != "waiting" {
		t.Errorf("phase = %q, want waiting", st.Phase)
	}
	want := time.Date(2026, time.March, 10, 6, 30, 0, 0, time.UTC)
	if st.NextWake == nil || !st.NextWake.Equal(want) {
		t.Errorf("nextWake = %v, want %v", st.NextWake, want)
	}
}

func TestStatusRejectsArguments(t *testing.T) {
	f := newDaemonFixture(t)
	_, err := f.run(t, "status", "extra")
	wantReported(t, err)
}

func TestSetCommand(t *testing.T) {
	f := newDaemonFixture(t)
	out, err := f.run(t, "set", "--hour", "6", "--minute", "30", "--on")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if want := "Alarm set to 06:30 (on)"; !strings.Contains(out, want) {
		t.Fatalf("got %q, want %q", out, want)
	}
	s := f.sched.Settings()
	if s.Hour != 6 || s.Minute != 30 || !s.Armed {
		t.Fatalf("scheduler settings = %+v, want 06:30 armed", s)
	}
	stored, err := f.store.Load()
	if err != nil || stored != s {
		t.Fatalf("stored = %+v (%v), want %+v", stored, err, s)
	}
	if sent := f.peer.Sent(); len(sent) != 1 || sent[0] != "settings" {
		t.Fatalf("peer got %v, want one settings push", sent)
	}

	out, err = f.run(t, "set", "--hour", "42", "--off")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if want := "Alarm set to 23:30 (off)"; !strings.Contains(out, want) {
		t.Fatalf("got %q, want clamped %q", out, want)
	}
}

func TestSetFlagErrors(t *testing.T) {
	f := newDaemonFixture(t)
	tests := []struct {
		name string
		args []string
	}{
		{"nothing to set", []string{"set"}},
		{"on and off", []string{"set", "--on", "--off"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.run(t, tt.args...)
			wantReported(t, err)
		})
	}
	if got := f.sched.Settings(); got.Armed {
		t.Fatalf("rejected flags changed settings: %+v", got)
	}
}

func TestSnoozeAndStopCommands(t *testing.T) {
	f := newDaemonFixture(t)
	out, err := f.run(t, "snooze")
	if err != nil {
		t.Fatalf("snooze: %v", err)
	}
	if want := "Alarm idle"; !strings.Contains(out, want) {
		t.Fatalf("snooze outside a cycle: got %q, want %q", out, want)
	}

	if _, err := f.run(t, "set", "--hour", "6", "--minute", "30", "--on"); err != nil {
		t.Fatal(err)
	}
	f.clock.AdvanceTo(time.Date(2026, time.March, 10, 6, 30, 0, 0, time.UTC))
	if !f.sched.IsRinging() {
		t.Fatal("alarm should ring at 06:30")
	}

	out, err = f.run(t, "snooze")
	if err != nil {
		t.Fatalf("snooze: %v", err)
	}
	if want := "Alarm snoozing, snooze 1 of 5"; !strings.Contains(out, want) {
		t.Fatalf("got %q, want %q", out, want)
	}
	out, err = f.run(t, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if want := "Alarm waiting"; !strings.Contains(out, want) {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestTimersCommand(t *testing.T) {
	f := newDaemonFixture(t)
	out, err := f.run(t, "timers")
	if err != nil {
		t.Fatalf("timers: %v", err)
	}
	for _, want := range []string{"Max snoozes: 5", "Ring:        15 min", "Snooze:      9 min"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = f.run(t, "timers", "--ring", "99", "--snooze", "4")
	if err != nil {
		t.Fatalf("timers: %v", err)
	}
	for _, want := range []string{"Max snoozes: 5", "Ring:        60 min", "Snooze:      4 min"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := f.sched.Settings(); got.RingMinutes != 60 || got.SnoozeMinutes != 4 {
		t.Fatalf("scheduler settings = %+v, want ring 60 snooze 4", got)
	}
}

func TestSendCommand(t *testing.T) {
	f := newDaemonFixture(t)
	tests := []struct {
		name string
		args []string
		want string
		fail bool
	}{
		{name: "inferred float", args: []string{"send", "/x", "0.5"}, want: "/x=0.500"},
		{name: "typed int", args: []string{"send", "--type", "int", "/n", "3"}, want: "/n=3"},
		{name: "missing value", args: []string{"send", "/x"}, fail: true},
		{name: "bad type", args: []string{"send", "--type", "blob", "/x", "1"}, fail: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(f.peer.Sent())
			_, err := f.run(t, tt.args...)
			if tt.fail {
				wantReported(t, err)
				if n := len(f.peer.Sent()); n != before {
					t.Fatalf("failed send reached the peer: %v", f.peer.Sent())
				}
				return
			}
			if err != nil {
				t.Fatalf("send: %v", err)
			}
			sent := f.peer.Sent()
			if len(sent) != before+1 || sent[before] != tt.want {
				t.Fatalf("got %v, want %q appended", sent, tt.want)
			}
		})
	}
}

func TestSyncCommand(t *testing.T) {
	f := newDaemonFixture(t)
	s := f.sched.Settings()
	s.Hour, s.Minute, s.Armed = 5, 45, true
	if err := f.store.Save(s); err != nil {
		t.Fatal(err)
	}
	out, err := f.run(t, "sync")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if want := "Pushed 05:45 (on) to the peer"; !strings.Contains(out, want) {
		t.Fatalf("got %q, want %q", out, want)
	}
	if got := f.sched.Settings(); got != s {
		t.Fatalf("scheduler settings = %+v, want %+v", got, s)
	}
}

func TestHistoryCommand(t *testing.T) {
	f := newDaemonFixture(t)
	if _, err := f.run(t, "set", "--hour", "6", "--minute", "30", "--on"); err != nil {
		t.Fatal(err)
	}
	out, err := f.run(t, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "idle -> waiting") || !strings.Contains(out, "armed") {
		t.Fatalf("history missing the arm transition:\n%s", out)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	f := newDaemonFixture(t, fixtureOptions{noHistory: true})
	out, err := f.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if want := "no alarm history yet"; !strings.Contains(out, want) {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestCountdownCommand(t *testing.T) {
	f := newDaemonFixture(t)
	prev := countdownTick
	countdownTick = 10 * time.Millisecond
	defer func() { countdownTick = prev }()

	out, err := f.run(t, "countdown")
	if err != nil {
		t.Fatalf("countdown: %v", err)
	}
	if want := "nothing scheduled"; !strings.Contains(out, want) {
		t.Fatalf("idle countdown: got %q, want %q", out, want)
	}

	if _, err := f.run(t, "set", "--hour", "6", "--minute", "30", "--on"); err != nil {
		t.Fatal(err)
	}
	// The fake clock lies in the past, so the bar completes on the first tick.
	done := make(chan error, 1)
	go func() {
		_, err := f.run(t, "countdown")
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("countdown: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("countdown did not finish")
	}
}

func TestUnauthorized(t *testing.T) {
	f := newDaemonFixture(t)
	_, err := runCLI(t, "--rpc", f.addr, "--secret", "wrong", "status")
	wantReported(t, err)
}
