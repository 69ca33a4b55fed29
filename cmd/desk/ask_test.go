package main

import (
	"strings"
	"testing"
)

func TestAskCmd_SubmitsChat(t *testing.T) {
	cfgPath := startDesk(t)

	out, err := runCmd(t, "ask", "--config", cfgPath, "--name", "Ann", "--email", "ann@example.com", "-m", "Where is my order?")
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Chat #1 is waiting") {
		t.Errorf("output = %q, want created chat", out)
	}
	if !strings.Contains(out, "[info] Your request has been sent") {
		t.Errorf("output = %q, want confirmation notice", out)
	}
}

func TestAskCmd_RequiresName(t *testing.T) {
	cfgPath := startDesk(t)

	_, err := runCmd(t, "ask", "--config", cfgPath, "-m", "hello")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "name") {
		t.Errorf("error = %q, want to mention name", err.Error())
	}
}
