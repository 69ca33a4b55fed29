package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleCmd_Help(t *testing.T) {
	out, err := runCmd(t, "console", "--help")
	if err != nil {
		t.Fatalf("console --help failed: %v", err)
	}
	if !strings.Contains(out, "--refresh") {
		t.Errorf("expected help to mention '--refresh', got: %s", out)
	}
}

func TestConsoleCmd_Session(t *testing.T) {
	cfgPath := startDesk(t)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader("staff\nlogin root pw\nchats\nquit\n"))
	cmd.SetArgs([]string{"console", "--config", cfgPath, "--refresh", "@every 1h"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("console: %v\n%s", err, buf.String())
	}
	out := buf.String()
	for _, want := range []string{"Support desk.", "Signed in as Root", "Signed out"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleCmd_BadRefresh(t *testing.T) {
	cfgPath := startDesk(t)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader("quit\n"))
	cmd.SetArgs([]string{"console", "--config", cfgPath, "--refresh", "not a schedule"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected schedule error")
	}
	if !strings.Contains(err.Error(), "refresh schedule") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestPasswordPrompt_NonTerminal(t *testing.T) {
	cmd := newConsoleCmd()
	cmd.SetIn(strings.NewReader(""))
	if passwordPrompt(cmd) != nil {
		t.Error("expected no prompt when input is not a terminal")
	}
}
