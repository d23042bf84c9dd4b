package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
)

type appStub struct {
	startErr error
	stopErr  error
	done     chan os.Signal
	stopped  bool
}

func (a *appStub) Start(context.Context) error { return a.startErr }

func (a *appStub) Stop(context.Context) error {
	a.stopped = true
	return a.stopErr
}

func (a *appStub) Done() <-chan os.Signal { return a.done }

func TestRun(t *testing.T) {
	cases := []struct {
		name    string
		app     *appStub
		cancel  bool
		code    int
		stderr  string
		stopped bool
	}{
		{name: "start failure", app: &appStub{startErr: errors.New("no db")}, code: 1, stderr: "failed to start warehouse: no db"},
		{name: "signal", app: &appStub{}, cancel: true, code: 0, stopped: true},
		{name: "fx shutdown", app: &appStub{done: make(chan os.Signal, 1)}, code: 0, stopped: true},
		{name: "stop failure", app: &appStub{stopErr: errors.New("hung")}, cancel: true, code: 1, stderr: "failed to stop warehouse: hung", stopped: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tc.cancel {
				cancel()
			}
			if tc.app.done != nil {
				tc.app.done <- syscall.SIGTERM
			}

			var stderr bytes.Buffer
			if code := run(ctx, tc.app, &stderr); code != tc.code {
				t.Fatalf("expected exit code %d, got %d", tc.code, code)
			}
			if !strings.Contains(stderr.String(), tc.stderr) {
				t.Fatalf("expected stderr %q, got %q", tc.stderr, stderr.String())
			}
			if tc.app.stopped != tc.stopped {
				t.Fatalf("expected stopped=%v", tc.stopped)
			}
		})
	}
}
