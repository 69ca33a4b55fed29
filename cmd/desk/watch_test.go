package main

import (
	"strings"
	"testing"
)

func TestWatchCmd_RequiresCredentials(t *testing.T) {
	_, err := runCmd(t, "watch")
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "--login") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestWatchCmd_Once(t *testing.T) {
	cfgPath := startDesk(t)

	if out, err := runCmd(t, "ask", "--config", cfgPath, "--name", "Vera", "-m", "hello"); err != nil {
		t.Fatalf("ask: %v\n%s", err, out)
	}

	out, err := runCmd(t, "watch", "--config", cfgPath, "--login", "root", "--password", "pw", "--once")
	if err != nil {
		t.Fatalf("watch: %v\n%s", err, out)
	}
	for _, want := range []string{"Signed in as Root", "VISITOR", "Vera", "waiting", "Signed out"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWatchCmd_BadLogin(t *testing.T) {
	cfgPath := startDesk(t)

	out, err := runCmd(t, "watch", "--config", cfgPath, "--login", "root", "--password", "wrong", "--once")
	if err == nil {
		t.Fatal("expected sign-in error")
	}
	if !strings.Contains(out, "Invalid login or password") {
		t.Errorf("output = %q", out)
	}
}

func TestWatchCmd_BadSchedule(t *testing.T) {
	cfgPath := startDesk(t)

	_, err := runCmd(t, "watch", "--config", cfgPath, "--login", "root", "--password", "pw", "--schedule", "bogus")
	if err == nil {
		t.Fatal("expected schedule error")
	}
	if !strings.Contains(err.Error(), "schedule") {
		t.Errorf("error = %q", err.Error())
	}
}
