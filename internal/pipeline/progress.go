package pipeline

import (
	"math"
	"time"
)

const (
	// etaMinSentences is how many sentences must be done before the ETA is
	// derived from the per-sentence rate instead of fractional progress.
	etaMinSentences  = 10
	etaMinFraction   = 0.01
	minActiveSeconds = 0.1
)

// tracker holds the mutable progress of one run. Only the controller's run
// goroutine touches it.
type tracker struct {
	start    time.Time
	waitTime time.Duration

	bookSentences int
	cumSentences  int
	runSentences  int
	runWords      int

	doc, docs   int
	node, nodes int

	percent int
}

func (t *tracker) activeSeconds(now time.Time) float64 {
	active := now.Sub(t.start) - t.waitTime
	return max(active.Seconds(), minActiveSeconds)
}

func (t *tracker) wordsPerSecond(now time.Time) float64 {
	return float64(t.runWords) / t.activeSeconds(now)
}

// fraction is document-level progress used before sentence totals are useful.
func (t *tracker) fraction() float64 {
	if t.docs == 0 {
		return 0
	}
	within := 0.0
	if t.nodes > 0 {
		within = float64(t.node) / float64(t.nodes)
	}
	return (float64(t.doc) + within) / float64(t.docs)
}

// updatePercent recomputes the percentage without letting it fall or reach
// 100 before completion.
func (t *tracker) updatePercent() int {
	var p int
	if t.bookSentences > 0 {
		p = int(math.Round(float64(t.cumSentences) / float64(t.bookSentences) * 100))
	} else {
		p = int(math.Round(t.fraction() * 100))
	}
	p = min(p, 99)
	t.percent = max(t.percent, p)
	return t.percent
}

func (t *tracker) eta(now time.Time) int {
	active := t.activeSeconds(now)

	if t.bookSentences > 0 && t.cumSentences > etaMinSentences && t.runSentences > 0 {
		perSentence := active / float64(t.runSentences)
		remaining := max(t.bookSentences-t.cumSentences, 0)
		return int(math.Round(float64(remaining) * perSentence))
	}

	frac := t.fraction()
	if frac <= etaMinFraction || frac >= 1 {
		return 0
	}
	return max(int(math.Round(active/frac-active)), 0)
}
