package trigram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedex/gamedex/pkg/errors"
)

func testIndex(opts ...Option) *Index {
	return New([]string{
		"amber", "barbara", "diluc", "fischl", "hu-tao",
		"raiden", "razor", "ruin-guard", "ruin-hunter", "traveler-anemo",
	}, opts...)
}

func TestMatchExact(t *testing.T) {
	ix := testIndex()

	code, err := ix.Match("amber")
	require.NoError(t, err)
	assert.Equal(t, "amber", code)
}

func TestMatchTolerantOfLexicalDrift(t *testing.T) {
	ix := testIndex()

	tests := []struct {
		name string
		want string
	}{
		{"Amber", "amber"},
		{"Hu Tao", "hu-tao"},
		{"Ruin Guards", "ruin-guard"},
		{"barbara ", "barbara"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := ix.Match(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestMatchBelowThresholdFails(t *testing.T) {
	ix := testIndex()

	// An irregular alias bears no lexical resemblance to its canonical code.
	// Fuzzy matching must refuse it rather than guess; the fixes ledger owns
	// such names.
	_, err := ix.Match("shougun")
	require.Error(t, err)
	assert.True(t, errors.IsNoConfidentMatch(err))

	var ncm *errors.NoConfidentMatchError
	require.ErrorAs(t, err, &ncm)
	assert.Equal(t, "shougun", ncm.Input)
	assert.NotEmpty(t, ncm.Closest)
	assert.Less(t, ncm.Similarity, ix.Threshold())
}

func TestMatchZeroSimilarityAlwaysFails(t *testing.T) {
	ix := testIndex(WithThreshold(0.0))

	// Threshold 0 still rejects inputs with no shared trigrams at all.
	_, err := ix.Match("qqq")
	require.Error(t, err)
	assert.True(t, errors.IsNoConfidentMatch(err))

	var ncm *errors.NoConfidentMatchError
	require.ErrorAs(t, err, &ncm)
	assert.Equal(t, 0.0, ncm.Similarity)
}

func TestMatchEmptyIndex(t *testing.T) {
	ix := New(nil)

	_, err := ix.Match("amber")
	require.Error(t, err)
	assert.True(t, errors.IsNoConfidentMatch(err))
}

func TestClosestDeterministicTieBreak(t *testing.T) {
	// Two candidates equidistant from the query resolve to the
	// lexicographically smaller one, regardless of construction order.
	a := New([]string{"abcx", "abcy"})
	b := New([]string{"abcy", "abcx"})

	codeA, simA := a.Closest("abc")
	codeB, simB := b.Closest("abc")

	assert.Equal(t, codeA, codeB)
	assert.Equal(t, simA, simB)
	assert.Equal(t, "abcx", codeA)
}

func TestThresholdMonotonicity(t *testing.T) {
	ix := testIndex()

	// Anything that passes a high threshold also passes a lower one and
	// resolves to the same code.
	strict := testIndex(WithThreshold(0.8))
	code, err := strict.Match("amber")
	require.NoError(t, err)

	loose, err := ix.Match("amber")
	require.NoError(t, err)
	assert.Equal(t, code, loose)
}

func TestContains(t *testing.T) {
	ix := testIndex()

	assert.True(t, ix.Contains("raiden"))
	assert.False(t, ix.Contains("shougun"))
}

func TestFixCodeMemberPassesThrough(t *testing.T) {
	ix := testIndex()

	code, err := ix.FixCode(context.Background(), "diluc", "character stats")
	require.NoError(t, err)
	assert.Equal(t, "diluc", code)
}

func TestFixCodeSubstitutesClosest(t *testing.T) {
	ix := testIndex()

	code, err := ix.FixCode(context.Background(), "ruin-guards", "map labels")
	require.NoError(t, err)
	assert.Equal(t, "ruin-guard", code)
}

func TestFixCodePropagatesFailure(t *testing.T) {
	ix := testIndex()

	_, err := ix.FixCode(context.Background(), "zzzzzz", "map labels")
	require.Error(t, err)
	assert.True(t, errors.IsNoConfidentMatch(err))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hu Tao", "hu tao"},
		{"Ruin-Guards ", "ruin guards"},
		{"  RAZOR!!", "razor"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize(tt.in), "normalize(%q)", tt.in)
	}
}

func TestSimilaritySymmetricAndBounded(t *testing.T) {
	a := grams("raiden")
	b := grams("raider")

	ab := similarity(a, b)
	ba := similarity(b, a)
	assert.Equal(t, ab, ba)
	assert.Greater(t, ab, 0.0)
	assert.Less(t, ab, 1.0)
	assert.Equal(t, 1.0, similarity(a, a))
	assert.Equal(t, 0.0, similarity(a, grams("")))
}
