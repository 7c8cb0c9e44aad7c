package paginate

import (
	"fmt"

	"github.com/cygnusreader/folio/internal/layout"
)

// Policy holds the break thresholds. The defaults follow print convention:
// blocks under eight lines are never split and neither end of a split may
// carry fewer than two lines.
type Policy struct {
	MinSplitLines     int     `json:"min_split_lines"`
	OrphanLines       int     `json:"orphan_lines"`
	WidowLines        int     `json:"widow_lines"`
	HeadingGuardRatio float64 `json:"heading_guard_ratio"` // share of capacity kept free after two stacked headings
	LineTolerance     float64 `json:"line_tolerance"`      // px
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinSplitLines:     8,
		OrphanLines:       2,
		WidowLines:        2,
		HeadingGuardRatio: 0.10,
		LineTolerance:     layout.DefaultLineTolerance,
	}
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MinSplitLines <= 0 {
		p.MinSplitLines = d.MinSplitLines
	}
	if p.OrphanLines <= 0 {
		p.OrphanLines = d.OrphanLines
	}
	if p.WidowLines <= 0 {
		p.WidowLines = d.WidowLines
	}
	if p.HeadingGuardRatio <= 0 {
		p.HeadingGuardRatio = d.HeadingGuardRatio
	}
	if p.LineTolerance <= 0 {
		p.LineTolerance = d.LineTolerance
	}
	return p
}

// Validate rejects thresholds that cannot produce a split.
func (p Policy) Validate() error {
	if p.MinSplitLines < p.OrphanLines+p.WidowLines {
		return fmt.Errorf("min split lines %d is below orphan %d + widow %d", p.MinSplitLines, p.OrphanLines, p.WidowLines)
	}
	if p.HeadingGuardRatio >= 1 {
		return fmt.Errorf("heading guard ratio must be below 1, got %g", p.HeadingGuardRatio)
	}
	return nil
}
