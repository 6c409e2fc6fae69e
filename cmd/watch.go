package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	shared "github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/server"
	"github.com/urfave/cli"
)

// formatNotification renders one push notification as a log line.
func formatNotification(method string, params json.RawMessage) string {
	switch method {
	case shared.NotifySettingsChanged:
		var s shared.AlarmSettings
		if err := json.Unmarshal(params, &s); err == nil {
			return fmt.Sprintf("settings: %s (%s), ring %dm, snooze %dm, max %d",
				clockTime(s.Hour, s.Minute), onOff(s.Armed), s.RingMinutes, s.SnoozeMinutes, s.MaxSnoozes)
		}
	case shared.NotifyFiring:
		var f shared.FiringNotification
		if err := json.Unmarshal(params, &f); err == nil {
			return fmt.Sprintf("firing: %t", f.Firing)
		}
	case shared.NotifyPhase:
		var p shared.PhaseNotification
		if err := json.Unmarshal(params, &p); err == nil {
			return fmt.Sprintf("phase: %s -> %s (%s, snoozes %d)", p.From, p.To, p.Cause, p.SnoozeCount)
		}
	}
	return fmt.Sprintf("%s: %s", method, params)
}

// subscribe dials the push endpoint and calls onNote for every notification
// until ctx ends or the connection drops.
func subscribe(ctx context.Context, ep endpoint, onNote func(method string, params json.RawMessage)) error {
	var opts cws.DialOptions
	if ep.Secret != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + ep.Secret}}
	}
	dctx, cancel := context.WithTimeout(ctx, DEF_CALL_TIMEOUT)
	conn, _, err := cws.Dial(dctx, ep.wsURL(), &opts)
	cancel()
	if err != nil {
		return err
	}
	done := make(chan struct{})
	rc := jrpc2.NewClient(server.NewWSChannel(ctx, conn), &jrpc2.ClientOptions{
		OnStop: func(*jrpc2.Client, error) { close(done) },
		OnNotify: func(req *jrpc2.Request) {
			var raw json.RawMessage
			if err := req.UnmarshalParams(&raw); err != nil {
				return
			}
			onNote(req.Method(), raw)
		},
	})
	defer rc.Close()

	// One call up front so a rejected or half-open connection fails fast.
	cctx, ccancel := context.WithTimeout(ctx, DEF_CALL_TIMEOUT)
	var v shared.VersionResult
	err = rc.CallResult(cctx, shared.MethodVersion, nil, &v)
	ccancel()
	if err != nil {
		return describe(err)
	}

	select {
	case <-ctx.Done():
		return nil
	case <-done:
		return fmt.Errorf("connection to %s closed", ep.Addr)
	}
}

func watch(ctx *cli.Context) error {
	ep, err := resolveEndpoint(ctx)
	if err != nil {
		return reportErr(ctx, "watch", "endpoint", err)
	}
	sctx, cancel := setupShutdownHandler()
	defer cancel()
	fmt.Fprintf(stdout, "Watching %s, press Ctrl+C to stop\n", ep.Addr)
	err = subscribe(sctx, ep, func(method string, params json.RawMessage) {
		fmt.Fprintf(stdout, "%s %s\n", time.Now().Format("15:04:05"), formatNotification(method, params))
	})
	if err != nil {
		return reportErr(ctx, "watch", "subscribe", err)
	}
	return nil
}
