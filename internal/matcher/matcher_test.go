package matcher

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"StrikeSentinel/internal/model"
)

func TestMatch_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		available []string
		wantKey   string
		wantTier  model.MatchStatus
	}{
		{"exact", "112,250.00", []string{"112,000", "112,250.00"}, "112,250.00", model.MatchExact},
		{"exact beats earlier normalized", "112,250", []string{"112,250.00", "112,250"}, "112,250", model.MatchExact},
		{"normalized missing suffix", "112,250.00", []string{"112,000", "112,250"}, "112,250", model.MatchNormalized},
		{"normalized without separators", "112,250.00", []string{"112250"}, "112250", model.MatchNormalized},
		{"suffix differing leading digits", "1,12,250.00", []string{"99,999", "2,12,250"}, "2,12,250", model.MatchSuffix},
		{"suffix first occurrence", "112,250.00", []string{"312,250", "212,250"}, "312,250", model.MatchSuffix},
		{"short target skips suffix", "2,250.00", []string{"12,250"}, "", model.MatchNotFound},
		{"short candidate skipped", "112,250.00", []string{"250"}, "", model.MatchNotFound},
		{"not found", "112,250.00", []string{"113,000", "113,500"}, "", model.MatchNotFound},
		{"empty snapshot", "112,250.00", nil, "", model.MatchNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, tier := Match(tt.target, tt.available)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantTier, tier)
		})
	}
}

func TestMatch_NormalizedNotExact(t *testing.T) {
	key, tier := Match("112,250.00", []string{"112,250"})
	assert.Equal(t, model.MatchNormalized, tier)
	assert.NotEqual(t, "112,250.00", key)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "112250", Normalize("112,250.00"))
	assert.Equal(t, "112250", Normalize("1,12,250"))
	assert.Equal(t, "112250.50", Normalize("112,250.50"))
}

func strikeGen() gopter.Gen {
	return gen.IntRange(1000, 999999).Map(func(n int) string {
		s := formatThousands(n)
		if n%2 == 0 {
			s += ".00"
		}
		return s
	})
}

func formatThousands(n int) string {
	digits := []byte{}
	for i := 0; n > 0; i++ {
		if i > 0 && i%3 == 0 {
			digits = append([]byte{','}, digits...)
		}
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestProperty_ExactAlwaysWins(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("target present in snapshot is returned verbatim", prop.ForAll(
		func(target string, others []string, pos int) bool {
			avail := append([]string{}, others...)
			i := pos % (len(avail) + 1)
			avail = append(avail[:i], append([]string{target}, avail[i:]...)...)
			key, tier := Match(target, avail)
			return key == target && tier == model.MatchExact
		},
		strikeGen(),
		gen.SliceOf(strikeGen()),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_TiersMonotonicallyLooser(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("an exact key is also a normalized match", prop.ForAll(
		func(target string, others []string) bool {
			avail := append(append([]string{}, others...), target)
			return normalizedHit(target, avail)
		},
		strikeGen(),
		gen.SliceOf(strikeGen()),
	))

	properties.Property("a normalized match also satisfies the suffix tier", prop.ForAll(
		func(n int) bool {
			a := formatThousands(n)
			b := a + ".00"
			na, nb := Normalize(a), Normalize(b)
			return na == nb && (len(na) < SuffixLen || na[len(na)-SuffixLen:] == nb[len(nb)-SuffixLen:])
		},
		gen.IntRange(1, 9999999),
	))

	properties.TestingRun(t)
}

// normalizedHit runs only the normalized tier.
func normalizedHit(target string, available []string) bool {
	norm := Normalize(target)
	for _, k := range available {
		if Normalize(k) == norm {
			return true
		}
	}
	return false
}
