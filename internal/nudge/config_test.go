package nudge

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nudge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}
	return path
}

func TestLoadPolicy(t *testing.T) {
	path := writePolicy(t, `
wait_after_invite: 24h
repeat_window: 48h
max_per_run: 10
message_template: "Nudge for %s"
`)
	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if p.WaitAfterInvite != 24*time.Hour {
		t.Errorf("WaitAfterInvite = %v, want 24h", p.WaitAfterInvite)
	}
	if p.RepeatWindow != 48*time.Hour {
		t.Errorf("RepeatWindow = %v, want 48h", p.RepeatWindow)
	}
	if p.MaxPerRun != 10 {
		t.Errorf("MaxPerRun = %d, want 10", p.MaxPerRun)
	}
	if p.MessageTemplate != "Nudge for %s" {
		t.Errorf("MessageTemplate = %q", p.MessageTemplate)
	}
}

func TestLoadPolicyFillsDefaults(t *testing.T) {
	path := writePolicy(t, "max_per_run: 5\n")
	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	def := DefaultPolicy()
	if p.WaitAfterInvite != def.WaitAfterInvite || p.RepeatWindow != def.RepeatWindow {
		t.Errorf("unset durations = %v/%v, want defaults", p.WaitAfterInvite, p.RepeatWindow)
	}
	if p.MaxPerRun != 5 {
		t.Errorf("MaxPerRun = %d, want the file's value", p.MaxPerRun)
	}
}

func TestLoadPolicyRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative wait", "wait_after_invite: -1h\n"},
		{"negative cap", "max_per_run: -1\n"},
		{"empty template", "message_template: \"\"\n"},
		{"not yaml", "::::\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadPolicy(writePolicy(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
