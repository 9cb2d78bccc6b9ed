package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"fetch", "batch", "traverse", "stream", "runs"}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range want {
		if !found[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "2026-08-01")
	if !strings.Contains(rootCmd.Version, "1.2.3") {
		t.Errorf("Version = %q, missing version", rootCmd.Version)
	}
	if !strings.Contains(rootCmd.Version, "2026-08-01") {
		t.Errorf("Version = %q, missing build time", rootCmd.Version)
	}
}

func TestRootHelp(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--help"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"fetch", "traverse", "webtori"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}
}
