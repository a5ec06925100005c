package syllabus

import "strings"

// Score is a coarse structural estimate in [0,1]: half the weight comes from
// key term coverage, then +0.1 per header and +0.1 for a slash date.
// Points are counted in hundredths so full coverage lands exactly on 1.0.
func (c *Catalog) Score(text string) float64 {
	lower := strings.ToLower(text)

	found := 0
	for _, term := range c.keyTerms {
		if strings.Contains(lower, term) {
			found++
		}
	}
	points := 0
	if n := len(c.keyTerms); n > 0 {
		points = found * 50 / n
	}

	for _, re := range c.headers {
		if re.MatchString(text) {
			points += 10
		}
	}
	if c.scoredDate.MatchString(text) {
		points += 10
	}

	if points > 100 {
		points = 100
	}
	return float64(points) / 100
}

// Score rates text with the built-in catalog.
func Score(text string) float64 { return DefaultCatalog().Score(text) }
