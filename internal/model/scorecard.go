package model

// Scorecard groups ordered Sections, each containing ordered Scores. Read
// only from the core's perspective (spec §3).
type Scorecard struct {
	ID         string
	AccountID  string
	ExternalID *string
	Key        *string
	Name       string
	Sections   []Section
}

// Section is an ordered group of Scores within a Scorecard.
type Section struct {
	ID     string
	Name   string
	Order  int
	Scores []Score
}

// Score is one rubric within a Section producing a labeled answer.
type Score struct {
	ID                string
	ExternalID        *string
	Key               *string
	Name              string
	ChampionVersionID *string
}

// AllScores returns every Score across every Section, in section order then
// intra-section order (the order spec §4.5 requires for enumeration).
func (s Scorecard) AllScores() []Score {
	var out []Score
	for _, sec := range s.Sections {
		out = append(out, sec.Scores...)
	}
	return out
}

// ScoresWithExternalID returns AllScores filtered to those carrying a
// non-empty ExternalID, the set spec §4.5 enumerates when no specific score
// is requested.
func (s Scorecard) ScoresWithExternalID() []Score {
	var out []Score
	for _, sc := range s.AllScores() {
		if sc.ExternalID != nil && *sc.ExternalID != "" {
			out = append(out, sc)
		}
	}
	return out
}
