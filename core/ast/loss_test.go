package ast

import "testing"

func TestLossClassLevel(t *testing.T) {
	tests := []struct {
		class LossClass
		level int
	}{
		{LossL0, 0},
		{LossL1, 1},
		{LossL2, 2},
		{LossL3, 3},
		{LossL4, 4},
		{"L9", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := tt.class.Level(); got != tt.level {
			t.Errorf("%q.Level() = %d, want %d", tt.class, got, tt.level)
		}
	}
}

func TestLossClassIsLossless(t *testing.T) {
	if !LossL0.IsLossless() {
		t.Error("L0 should be lossless")
	}
	for _, c := range []LossClass{LossL1, LossL2, LossL3, LossL4} {
		if c.IsLossless() {
			t.Errorf("%q should not be lossless", c)
		}
	}
}

func TestLossReportHasLoss(t *testing.T) {
	r := &LossReport{SourceFormat: Markdown, TargetFormat: Markdown, LossClass: LossL0}
	if r.HasLoss() {
		t.Error("clean L0 report should have no loss")
	}

	r.LossClass = LossL2
	if !r.HasLoss() {
		t.Error("L2 report should have loss")
	}

	// Lost elements imply loss even at level zero.
	r = &LossReport{LossClass: LossL0}
	r.AddLostElement("table", "rendered as aligned text")
	if !r.HasLoss() {
		t.Error("report with lost elements should have loss")
	}
}

func TestLossReportAccumulation(t *testing.T) {
	r := &LossReport{SourceFormat: Typst, TargetFormat: PlainText, LossClass: LossL4}
	r.AddLostElement("math", "raw source kept as text")
	r.AddLostElement("table", "flattened row by row")
	r.AddWarning("document metadata dropped")

	if len(r.LostElements) != 2 {
		t.Fatalf("lost elements = %d, want 2", len(r.LostElements))
	}
	if r.LostElements[0].Feature != "math" || r.LostElements[1].Feature != "table" {
		t.Errorf("lost element order not preserved: %+v", r.LostElements)
	}
	if len(r.Warnings) != 1 || r.Warnings[0] != "document metadata dropped" {
		t.Errorf("warnings = %v", r.Warnings)
	}
}
