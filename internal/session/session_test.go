package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"StrikeSentinel/internal/model"
)

func TestSession_StrikesAreCopied(t *testing.T) {
	s := New()
	assert.False(t, s.StrikesLoaded())

	ce := model.StrikeList{"1,000.00"}
	s.LoadStrikes(ce, model.StrikeList{"900.00"}, "strikes.txt")
	ce[0] = "mutated"

	gotCE, gotPE := s.Strikes()
	assert.True(t, s.StrikesLoaded())
	assert.Equal(t, model.StrikeList{"1,000.00"}, gotCE)
	assert.Equal(t, model.StrikeList{"900.00"}, gotPE)
	assert.Equal(t, "strikes.txt", s.Source())
}

func TestSession_SnapshotStartsEmptyAndIsReplacedWholesale(t *testing.T) {
	s := New()
	assert.True(t, s.Snapshot().Empty())

	first := model.NewSnapshot([]model.StrikeRow{{Key: "1,000"}}, time.Unix(1, 0))
	s.ReplaceSnapshot(first)
	assert.Same(t, first, s.Snapshot())

	second := model.NewSnapshot([]model.StrikeRow{{Key: "2,000"}, {Key: "3,000"}}, time.Unix(2, 0))
	s.ReplaceSnapshot(second)
	assert.Equal(t, []string{"2,000", "3,000"}, s.Snapshot().Keys())
}
