// Package strikes extracts the CE and PE target strike lists from a strikes source text.
package strikes

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"StrikeSentinel/internal/model"
)

// labelPatterns are tried in order for each side; the first one that yields
// at least one quoted token wins. %s is the side tag.
var labelPatterns = []string{
	`(?is)\b%s\s+STRIKE\s*=\s*\[(.*?)\]`,
	`(?is)\b%s(?:_STRIKES?|\s+STRIKES)\s*=\s*\[(.*?)\]`,
	`(?is)%s.*?=.*?\[(.*?)\]`,
}

var (
	sidePatterns = map[model.Side][]*regexp.Regexp{
		model.SideCE: compileSide(model.SideCE),
		model.SidePE: compileSide(model.SidePE),
	}
	quotedToken      = regexp.MustCompile(`['"]([^'"]+)['"]`)
	twoDecimalSuffix = regexp.MustCompile(`\.\d{2}$`)
)

func compileSide(side model.Side) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(labelPatterns))
	for i, p := range labelPatterns {
		out[i] = regexp.MustCompile(fmt.Sprintf(p, side))
	}
	return out
}

// ParseError reports the sides for which no strike list could be extracted.
type ParseError struct {
	Sides []model.Side
}

func (e *ParseError) Error() string {
	names := make([]string, len(e.Sides))
	for i, s := range e.Sides {
		names[i] = string(s)
	}
	return fmt.Sprintf("parse strikes: no %s strike list found", strings.Join(names, "/"))
}

// Parse extracts the CE and PE strike lists from text. Tokens keep their
// source order and duplicates; each is normalized with Normalize.
func Parse(text string) (ce, pe model.StrikeList, err error) {
	ce = extract(text, model.SideCE)
	pe = extract(text, model.SidePE)

	var failed []model.Side
	if len(ce) == 0 {
		failed = append(failed, model.SideCE)
	}
	if len(pe) == 0 {
		failed = append(failed, model.SidePE)
	}
	if len(failed) > 0 {
		return nil, nil, &ParseError{Sides: failed}
	}
	return ce, pe, nil
}

// LoadFile reads a strikes source file and parses it.
func LoadFile(path string) (ce, pe model.StrikeList, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read strikes file: %w", err)
	}
	return Parse(string(data))
}

func extract(text string, side model.Side) model.StrikeList {
	for _, re := range sidePatterns[side] {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		tokens := quotedToken.FindAllStringSubmatch(m[1], -1)
		var list model.StrikeList
		for _, t := range tokens {
			tok := strings.TrimSpace(t[1])
			if tok == "" {
				continue
			}
			list = append(list, Normalize(tok))
		}
		if len(list) > 0 {
			return list
		}
	}
	return nil
}

// Normalize appends ".00" unless token already ends in a two-decimal suffix.
// It is idempotent.
func Normalize(token string) string {
	if twoDecimalSuffix.MatchString(token) {
		return token
	}
	return token + ".00"
}
