package pipeline

// Bridge describes the dashed connector drawn across the gap interval on a
// single-series chart.
type Bridge struct {
	Draw       bool    `json:"draw"`
	FromBucket string  `json:"from_bucket,omitempty"`
	ToBucket   string  `json:"to_bucket,omitempty"`
	YStart     float64 `json:"y_start,omitempty"`
	YEnd       float64 `json:"y_end,omitempty"`
}

// GapBridge decides whether a series gets a connector across the gap.
// The bridge is drawn iff both boundary buckets (last pre-gap, first
// post-gap) exist on the series' timeline and hold present values; a chart
// must never draw a line to or from an undefined point. Boundaries outside
// the timeline are a silent no-op, not an error.
func GapBridge(s Series) Bridge {
	pre := s.Timeline.LastPreGapIndex()
	post := s.Timeline.FirstPostGapIndex()
	if pre < 0 || post < 0 {
		return Bridge{}
	}

	yStart, ok := s.Values[pre].Float64()
	if !ok {
		return Bridge{}
	}
	yEnd, ok := s.Values[post].Float64()
	if !ok {
		return Bridge{}
	}

	return Bridge{
		Draw:       true,
		FromBucket: s.Timeline.Buckets[pre].Label,
		ToBucket:   s.Timeline.Buckets[post].Label,
		YStart:     yStart,
		YEnd:       yEnd,
	}
}
