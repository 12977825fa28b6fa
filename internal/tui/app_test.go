package tui

import (
	"testing"

	"github.com/matheus3301/floodline/internal/rpc"
)

func TestDescribeFlush(t *testing.T) {
	tests := []struct {
		res  rpc.FlushResult
		want string
	}{
		{rpc.FlushResult{Coalesced: true}, "Flush already running"},
		{rpc.FlushResult{Skipped: "offline"}, "Flush skipped: offline"},
		{rpc.FlushResult{Synced: 2, Retried: 1, Remaining: 1}, "Synced 2, retried 1, dropped 0, 1 remaining"},
	}
	for _, tt := range tests {
		if got := describeFlush(tt.res); got != tt.want {
			t.Errorf("describeFlush(%+v) = %q, want %q", tt.res, got, tt.want)
		}
	}
}

func TestSettingsSummary(t *testing.T) {
	got := settingsSummary(rpc.Settings{AutoSync: true})
	if got != "auto-sync on, maps off" {
		t.Errorf("settingsSummary = %q", got)
	}
}
