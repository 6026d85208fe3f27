// Package report renders a scored assessment as a Markdown narrative, an
// HTML page or a PDF document.
package report

import (
	"sort"
	"time"

	"digitalmaturity/internal/model"
	"digitalmaturity/internal/scoring"
)

// Area is one scored category with its gap
type Area struct {
	Name string
	Gap  model.GapItem
}

// Input is everything a renderer needs
type Input struct {
	Organization  model.OrganizationInfo
	Level         int
	MaturityLevel float64 // rounded to one decimal
	MaturityLabel string
	Areas         []Area // catalog order
	GeneratedAt   time.Time
}

// FromResult builds an input from a fresh engine result
func FromResult(org model.OrganizationInfo, level int, res *scoring.Result) Input {
	areas := make([]Area, 0, len(res.Categories))
	for _, c := range res.Categories {
		areas = append(areas, Area{Name: c.Name, Gap: roundGap(c.Gap)})
	}
	return Input{
		Organization:  org,
		Level:         level,
		MaturityLevel: res.DisplayMaturity(),
		MaturityLabel: res.MaturityLabel,
		Areas:         areas,
		GeneratedAt:   time.Now().UTC(),
	}
}

// FromAssessment rebuilds an input from stored results. Categories missing
// from the stored order are appended in name order.
func FromAssessment(org model.OrganizationInfo, a *model.Assessment) Input {
	in := Input{
		Organization:  org,
		Level:         a.Level,
		MaturityLabel: a.MaturityLabel,
		GeneratedAt:   time.Now().UTC(),
	}
	if a.MaturityLevel != nil {
		in.MaturityLevel = scoring.Round1(*a.MaturityLevel)
	}
	if a.CompletedAt != nil {
		in.GeneratedAt = *a.CompletedAt
	}

	seen := make(map[string]bool, len(a.GapAnalysis))
	for _, name := range a.Categories {
		if gap, ok := a.GapAnalysis[name]; ok && !seen[name] {
			in.Areas = append(in.Areas, Area{Name: name, Gap: roundGap(gap)})
			seen[name] = true
		}
	}
	var rest []string
	for name := range a.GapAnalysis {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		in.Areas = append(in.Areas, Area{Name: name, Gap: roundGap(a.GapAnalysis[name])})
	}
	return in
}

func roundGap(g model.GapItem) model.GapItem {
	g.CurrentScore = scoring.Round1(g.CurrentScore)
	g.Gap = scoring.Round1(g.Gap)
	return g
}

// byPriority returns the areas with the given priority in order
func (in Input) byPriority(p model.Priority) []Area {
	var out []Area
	for _, a := range in.Areas {
		if a.Gap.Priority == p {
			out = append(out, a)
		}
	}
	return out
}
