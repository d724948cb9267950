package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSink_Emit(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(zap.New(core))

	require.NoError(t, s.Emit(context.Background(), testEvent("sig1")))

	entries := logs.FilterMessage("swap detected").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "Jupiter", fields["source"])
	assert.Equal(t, "TraderPubkey", fields["trader"])
	assert.Equal(t, "sig1", fields["signature"])
	assert.Equal(t, uint64(250000000), fields["slot"])
	assert.Equal(t, "https://solscan.io/tx/sig1", fields["tx_url"])
	assert.Equal(t, "SOL/USDC", fields["pool_name"])
}
