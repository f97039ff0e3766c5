package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, p.config.Enabled)

	ctx, done := p.TrackOperation(context.Background(), "bill.transform", BillID("hr1-111"))
	assert.NotNil(t, ctx)
	done(errors.New("boom"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	ctx, done := p.TrackOperation(context.Background(), "vote.transform", VoteID("h1-111.2009"))
	assert.NotNil(t, ctx)
	done(nil)
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestAttributes(t *testing.T) {
	assert.Equal(t, "congress.collection", string(Collection("BILLS").Key))
	assert.Equal(t, "BILLS", Collection("BILLS").Value.AsString())
}
