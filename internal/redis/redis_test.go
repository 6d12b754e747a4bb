package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsMalformedURL(t *testing.T) {
	client, err := Connect("not-a-redis-url")
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "parse url")
}

func TestConnectFailsFastWhenUnreachable(t *testing.T) {
	// Port 1 is reserved and nothing listens there.
	client, err := Connect("redis://127.0.0.1:1/0")
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "ping")
}
