package app

import "testing"

// TestStateLabel 引擎状态词汇：扫描进行中报 Indexing，空闲报 Idle.
func TestStateLabel(t *testing.T) {
	if got := stateLabel(false); got != "Idle" {
		t.Errorf("idle label = %q, want Idle", got)
	}

	if got := stateLabel(true); got != "Indexing" {
		t.Errorf("crawling label = %q, want Indexing", got)
	}
}
