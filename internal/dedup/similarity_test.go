package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tokens := tokenize("We will prepare the Quarterly Report, by Friday!")
	assert.Equal(t, []string{"prepare", "quarterly", "report", "friday"}, tokens)
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, jaccard([]string{"send", "report"}, []string{"report", "send"}))
	assert.Equal(t, 0.0, jaccard([]string{"send"}, []string{"review"}))
	assert.Equal(t, 0.0, jaccard(nil, []string{"review"}))
	assert.InDelta(t, 1.0/3.0, jaccard([]string{"send", "report"}, []string{"send", "deck"}), 1e-9)
}

func TestLexicalSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, lexicalSimilarity(
		"prepare the quarterly report",
		"Prepare the quarterly report."))

	// A short restatement contained in a longer commitment is boosted.
	contained := lexicalSimilarity(
		"review the security audit findings",
		"review the security audit findings by Friday")
	assert.GreaterOrEqual(t, contained, 0.85)

	assert.Less(t, lexicalSimilarity(
		"prepare the quarterly report",
		"schedule a design review"), 0.5)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, cosine(nil, nil))
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
}
