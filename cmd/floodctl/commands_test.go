package main

import (
	"testing"
)

func TestParseSettings(t *testing.T) {
	got, err := parseSettings([]string{"autoSync=false", "cache-maps=true", "OFFLINEMODE=1"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"autoSync": false, "cacheMaps": true, "offlineMode": true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestParseSettingsErrors(t *testing.T) {
	for _, in := range []string{"autoSync", "speed=fast", "autoSync=maybe"} {
		if _, err := parseSettings([]string{in}); err == nil {
			t.Errorf("parseSettings(%q) succeeded", in)
		}
	}
}
