package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-pool-monitor/internal/domain"
)

var (
	jupiter     = domain.MustParsePublicKey(domain.JupiterV6)
	raydiumCLMM = domain.MustParsePublicKey(domain.RaydiumCLMM)
	raydiumAMM  = domain.MustParsePublicKey(domain.RaydiumAMMV4)
)

func TestClassifier_EmptyInstructions(t *testing.T) {
	c := NewClassifier(DefaultRegistry())

	assert.Equal(t, domain.SourceOther, c.Classify(nil, []domain.PublicKey{jupiter}))
}

func TestClassifier_ThirdInstructionMatches(t *testing.T) {
	c := NewClassifier(DefaultRegistry())
	keys := []domain.PublicKey{{1}, {2}, {3}, raydiumCLMM}

	ixs := []domain.SubOperation{
		{ProgramIDIndex: 1},
		{ProgramIDIndex: 2},
		{ProgramIDIndex: 3},
	}

	assert.Equal(t, domain.SourceRaydiumCLMM, c.Classify(ixs, keys))
}

func TestClassifier_NoMatches(t *testing.T) {
	c := NewClassifier(DefaultRegistry())
	keys := []domain.PublicKey{{1}, {2}, {3}}

	ixs := []domain.SubOperation{{ProgramIDIndex: 1}, {ProgramIDIndex: 2}}

	assert.Equal(t, domain.SourceOther, c.Classify(ixs, keys))
}

func TestClassifier_FirstMatchWins(t *testing.T) {
	c := NewClassifier(DefaultRegistry())
	keys := []domain.PublicKey{{1}, raydiumAMM, jupiter}

	// Jupiter routes through Raydium AMM; order decides the label.
	assert.Equal(t, domain.SourceJupiter, c.Classify(
		[]domain.SubOperation{{ProgramIDIndex: 2}, {ProgramIDIndex: 1}}, keys))
	assert.Equal(t, domain.SourceRaydiumAMM, c.Classify(
		[]domain.SubOperation{{ProgramIDIndex: 1}, {ProgramIDIndex: 2}}, keys))
}

func TestClassifier_SkipsOutOfRangeIndex(t *testing.T) {
	c := NewClassifier(DefaultRegistry())
	keys := []domain.PublicKey{{1}, jupiter}

	ixs := []domain.SubOperation{{ProgramIDIndex: 9}, {ProgramIDIndex: 1}}

	assert.Equal(t, domain.SourceJupiter, c.Classify(ixs, keys))
}

func TestParseRegistry(t *testing.T) {
	r, err := ParseRegistry([]string{
		"Jupiter=" + domain.JupiterV6,
		" Orca Whirlpool = whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc ",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	label, ok := r.Lookup(domain.MustParsePublicKey("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"))
	assert.True(t, ok)
	assert.Equal(t, domain.Source("Orca Whirlpool"), label)

	_, err = ParseRegistry([]string{"missing-separator"})
	assert.Error(t, err)

	_, err = ParseRegistry([]string{"Bad=xyz"})
	assert.Error(t, err)
}

func TestRegistry_Entries(t *testing.T) {
	entries := DefaultRegistry().Entries()
	assert.Equal(t, []string{
		"Jupiter=" + domain.JupiterV6,
		"Raydium AMM=" + domain.RaydiumAMMV4,
		"Raydium CLMM=" + domain.RaydiumCLMM,
	}, entries)
}

func TestNewClassifier_NilRegistry(t *testing.T) {
	c := NewClassifier(nil)
	assert.Equal(t, domain.SourceOther, c.Classify([]domain.SubOperation{{ProgramIDIndex: 0}}, []domain.PublicKey{jupiter}))
}
