package ast

// LossClass classifies the fidelity of a conversion.
type LossClass string

// Loss class constants, from most to least fidelity.
const (
	// LossL0 indicates a lossless conversion.
	LossL0 LossClass = "L0"

	// LossL1 indicates semantically lossless output: all content is
	// preserved, surface formatting may differ.
	LossL1 LossClass = "L1"

	// LossL2 indicates minor loss: some presentation details degraded.
	LossL2 LossClass = "L2"

	// LossL3 indicates significant loss: whole constructs degraded to
	// a generic passthrough or nearest analogue.
	LossL3 LossClass = "L3"

	// LossL4 indicates only raw text survives.
	LossL4 LossClass = "L4"
)

// Level returns the numeric level (0-4) of the loss class, or -1.
func (l LossClass) Level() int {
	switch l {
	case LossL0:
		return 0
	case LossL1:
		return 1
	case LossL2:
		return 2
	case LossL3:
		return 3
	case LossL4:
		return 4
	default:
		return -1
	}
}

// IsLossless returns true if this loss class indicates no loss at all.
func (l LossClass) IsLossless() bool {
	return l == LossL0
}

// LostElement describes one construct a target dialect cannot express
// natively.
type LostElement struct {
	// Feature is the shared vocabulary name (e.g. "table", "math").
	Feature string `json:"feature"`

	// Reason explains how the construct will degrade.
	Reason string `json:"reason"`
}

// LossReport documents the expected fidelity of rendering a document
// in a target dialect. It is advisory: renderers degrade regardless of
// whether the caller asked for a report.
type LossReport struct {
	SourceFormat SourceFormat  `json:"source_format"`
	TargetFormat SourceFormat  `json:"target_format"`
	LossClass    LossClass     `json:"loss_class"`
	LostElements []LostElement `json:"lost_elements,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// HasLoss returns true if any construct will degrade.
func (r *LossReport) HasLoss() bool {
	return len(r.LostElements) > 0 || r.LossClass.Level() > 0
}

// AddLostElement records a construct the target cannot express.
func (r *LossReport) AddLostElement(feature, reason string) {
	r.LostElements = append(r.LostElements, LostElement{Feature: feature, Reason: reason})
}

// AddWarning records a non-fatal conversion issue.
func (r *LossReport) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}
