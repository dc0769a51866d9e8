package section

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/darkha03/MyCount/internal/core"
)

// Dataset is the chart input parsed out of a statistics fragment:
// parallel per-participant sequences plus the plan total, all in cents.
type Dataset struct {
	Labels      []string
	Balances    []int64
	Contributed []int64
	Consumed    []int64
	TotalCents  int64
}

// ChartSurface is whatever draws the dataset. Rendering itself is out of
// scope here; tests plug in a recorder.
type ChartSurface interface {
	Render(Dataset)
	Clear()
}

// StatisticsController derives the chart dataset from already-rendered
// statistics fragments. The server computed the numbers; this only reads
// them back out of the row attributes.
type StatisticsController struct {
	surface ChartSurface
	last    Dataset
}

func NewStatisticsController(surface ChartSurface) *StatisticsController {
	return &StatisticsController{surface: surface}
}

// Update parses the fragment and pushes the dataset to the surface. A
// fragment without labeled rows clears the chart instead of leaving the
// previous plan's bars on screen.
func (sc *StatisticsController) Update(fragment string) {
	ds := ParseStatistics(fragment)
	sc.last = ds
	if sc.surface == nil {
		return
	}
	if len(ds.Labels) == 0 {
		sc.surface.Clear()
		return
	}
	sc.surface.Render(ds)
}

// Dataset returns the most recently parsed dataset.
func (sc *StatisticsController) Dataset() Dataset { return sc.last }

// ParseStatistics extracts the per-participant rows from a statistics
// fragment. Rows are elements carrying data-participant plus the
// data-balance / data-contributed / data-consumed amount attributes; a
// row with an unparsable amount is skipped whole. The total is the sum
// of contributions, falling back to the sum of positive balances when
// the fragment carries no contribution data.
func ParseStatistics(fragment string) Dataset {
	var ds Dataset
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ds
	}

	hasContributed := false
	walk(root, func(n *html.Node) {
		name, ok := attr(n, "data-participant")
		if !ok || name == "" {
			return
		}
		if cls, ok := attr(n, "class"); ok && strings.Contains(cls, "split-row") {
			// Expense form rows reuse the attribute; not statistics.
			return
		}
		balance, err := amountAttr(n, "data-balance")
		if err != nil {
			return
		}
		contributed, err := amountAttr(n, "data-contributed")
		if err != nil {
			return
		}
		consumed, err := amountAttr(n, "data-consumed")
		if err != nil {
			return
		}
		if _, ok := attr(n, "data-contributed"); ok {
			hasContributed = true
		}
		ds.Labels = append(ds.Labels, name)
		ds.Balances = append(ds.Balances, balance)
		ds.Contributed = append(ds.Contributed, contributed)
		ds.Consumed = append(ds.Consumed, consumed)
	})

	if hasContributed {
		for _, c := range ds.Contributed {
			ds.TotalCents += c
		}
	} else {
		for _, b := range ds.Balances {
			if b > 0 {
				ds.TotalCents += b
			}
		}
	}
	return ds
}

// amountAttr parses a 2-decimal amount attribute into cents. A missing
// attribute is zero, a malformed one is an error.
func amountAttr(n *html.Node, name string) (int64, error) {
	val, ok := attr(n, name)
	if !ok || strings.TrimSpace(val) == "" {
		return 0, nil
	}
	return core.ParseSignedDecimalToCents(val)
}
