package strategy

import (
	"fmt"
	"strings"
)

// Field weights for keyword matches. A hit in the event name is the
// strongest signal, the type field half as strong, free text weakest.
const (
	nameWeight = 3.0
	typeWeight = 2.0
	descWeight = 1.0
)

const (
	baseConfidence     = 0.6
	perMatchConfidence = 0.1
	matchConfidenceCap = 0.3
	corroborationBonus = 0.05
	maxConfidence      = 0.98
)

// Classifier scores event metadata against a rule set and picks the
// attendance strategy. It is stateless beyond the injected rules and
// safe for concurrent use.
type Classifier struct {
	rules *RuleSet
}

// NewClassifier builds a classifier; nil rules selects the defaults.
func NewClassifier(rules *RuleSet) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Detect classifies a descriptor. It never fails: with no signal at all
// the result degrades to SingleMark at base confidence.
func (c *Classifier) Detect(d Descriptor) Detection {
	name := strings.ToLower(d.Name)
	typ := strings.ToLower(d.Type)
	desc := strings.ToLower(d.Description)
	blob := d.Blob()

	scores := make(map[Strategy]float64, len(All))
	matches := make(map[Strategy]int, len(All))
	var notes []string

	for strat, words := range c.rules.Keywords {
		for _, w := range words {
			if strings.Contains(name, w) {
				scores[strat] += nameWeight
				matches[strat]++
			}
			if strings.Contains(typ, w) {
				scores[strat] += typeWeight
				matches[strat]++
			}
			if strings.Contains(desc, w) {
				scores[strat] += descWeight
				matches[strat]++
			}
		}
	}

	dur := d.Duration()
	for _, b := range c.rules.DurationBuckets {
		if b.Max == 0 || dur <= b.Max {
			scores[b.Strategy] += b.Bonus
			notes = append(notes, fmt.Sprintf("duration %s favors %s", dur, b.Strategy))
			break
		}
	}

	venueStrategy := Strategy("")
	if d.Venue != "" {
		venue := strings.ToLower(d.Venue)
		for _, vr := range c.rules.VenueAffinity {
			if containsAny(venue, vr.Keywords...) {
				scores[vr.Strategy] += vr.Bonus
				venueStrategy = vr.Strategy
				notes = append(notes, fmt.Sprintf("venue %q favors %s", d.Venue, vr.Strategy))
				break
			}
		}
	}

	teamMode := d.RegistrationMode == ModeTeam
	if teamMode {
		scores[SessionBased] += c.rules.TeamBonus
		scores[MilestoneBased] += c.rules.LargeTeamBonus
		if c.rules.LargeTeamSize > 0 && d.MaxTeamSize >= c.rules.LargeTeamSize {
			scores[MilestoneBased] += c.rules.LargeTeamBonus
		}
		notes = append(notes, "team registration favors session/milestone tracking")
	}

	var winner Strategy
	forced := false
	for _, rule := range c.rules.Overrides {
		if rule.Applies(d, blob) {
			winner = rule.Force
			forced = true
			notes = append(notes, fmt.Sprintf("override rule %q forces %s", rule.Name, rule.Force))
			break
		}
	}
	if !forced {
		winner = pickWinner(scores)
	}

	confidence := baseConfidence
	bonus := perMatchConfidence * float64(matches[winner])
	if bonus > matchConfidenceCap {
		bonus = matchConfidenceCap
	}
	confidence += bonus
	if venueStrategy == winner && venueStrategy != "" {
		confidence += corroborationBonus
	}
	if teamMode && (winner == SessionBased || winner == MilestoneBased) {
		confidence += corroborationBonus
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	if matches[winner] > 0 {
		notes = append(notes, fmt.Sprintf("%d keyword match(es) for %s", matches[winner], winner))
	}
	if len(notes) == 0 {
		notes = append(notes, "no signal, defaulting")
	}

	return Detection{
		Strategy:   winner,
		Confidence: confidence,
		Reasoning:  strings.Join(notes, "; "),
	}
}

// pickWinner returns the max-scoring strategy, using tieBreakOrder for
// equal scores. With an empty score table it falls back to SingleMark.
func pickWinner(scores map[Strategy]float64) Strategy {
	winner := SingleMark
	best := -1.0
	for _, s := range tieBreakOrder {
		if scores[s] > best {
			best = scores[s]
			winner = s
		}
	}
	if best <= 0 {
		return SingleMark
	}
	return winner
}
