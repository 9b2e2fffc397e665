package annotate

import (
	"github.com/samber/lo"

	"github.com/menta2k/dermascan/pkg/types"
)

// LegendEntry is one badge in the overlay legend
type LegendEntry struct {
	Label             string `json:"class"`
	ConfidencePercent int    `json:"confidence"`
	Color             string `json:"color"`
}

// Legend returns one entry per distinct label in first-seen order, carrying
// the confidence of that label's first box.
func Legend(boxes []types.LabeledBox) []LegendEntry {
	uniq := lo.UniqBy(boxes, func(b types.LabeledBox) string { return b.Label })
	return lo.Map(uniq, func(b types.LabeledBox, _ int) LegendEntry {
		return LegendEntry{
			Label:             b.Label,
			ConfidencePercent: b.ConfidencePercent,
			Color:             Hex(ColorOf(b.Label)),
		}
	})
}
