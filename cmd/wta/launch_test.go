package main

import "testing"

func TestResolveProviderNameDefaultsFromConfig(t *testing.T) {
	name, err := resolveProviderName("", "claude")
	if err != nil {
		t.Fatalf("resolveProviderName: %v", err)
	}
	if name != "claude" {
		t.Errorf("name = %q, want claude", name)
	}
}

func TestResolveProviderNameAcceptsMixedCase(t *testing.T) {
	name, err := resolveProviderName("Claude", "codex")
	if err != nil {
		t.Fatalf("resolveProviderName: %v", err)
	}
	if name != "claude" {
		t.Errorf("name = %q, want claude", name)
	}
}

func TestResolveProviderNameRejectsUnknown(t *testing.T) {
	if _, err := resolveProviderName("not-a-real-cli", "claude"); err == nil {
		t.Error("expected error for unknown provider")
	}
}
