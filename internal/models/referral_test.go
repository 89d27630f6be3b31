package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// A fresh edge must not persist null trade timestamps: BSON null sorts below
// any date, so a stored null would permanently win the $min that records the
// first trade.
func TestReferralEdgeOmitsUnsetTradeTimestamps(t *testing.T) {
	edge := &ReferralEdge{
		UserID:     primitive.NewObjectID(),
		ReferredBy: primitive.NewObjectID(),
		Status:     ReferralEdgeStatusActive,
	}

	data, err := bson.Marshal(edge)
	require.NoError(t, err)

	raw := bson.Raw(data)
	_, err = raw.LookupErr("first_trade_at")
	assert.Error(t, err, "unset first_trade_at must be absent, not null")
	_, err = raw.LookupErr("last_trade_at")
	assert.Error(t, err, "unset last_trade_at must be absent, not null")

	now := time.Now().UTC().Truncate(time.Millisecond)
	edge.FirstTradeAt = &now
	edge.LastTradeAt = &now

	data, err = bson.Marshal(edge)
	require.NoError(t, err)

	raw = bson.Raw(data)
	first, err := raw.LookupErr("first_trade_at")
	require.NoError(t, err)
	assert.Equal(t, now, first.Time().UTC())
}
