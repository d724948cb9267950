package domain

// Source labels the program that originated a swap.
type Source string

const (
	SourceJupiter     Source = "Jupiter"
	SourceRaydiumCLMM Source = "Raydium CLMM"
	SourceRaydiumAMM  Source = "Raydium AMM"
	// SourceOther is used when no registered program is invoked.
	SourceOther Source = "Other"
)

// Known program IDs.
const (
	// JupiterV6 is the Jupiter aggregator v6 program ID.
	JupiterV6 = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	// RaydiumCLMM is the Raydium concentrated liquidity program ID.
	RaydiumCLMM = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}
