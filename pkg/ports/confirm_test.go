package ports_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/pkg/ports"
)

func TestContextConfirmer(t *testing.T) {
	var c ports.Confirmer = ports.ContextConfirmer{}
	req := ports.ConfirmRequest{Kind: ports.ConfirmUnsaved, Step: 1, Target: 3}

	d, err := c.Confirm(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ports.DecisionCancel, d)

	ctx := ports.WithDecision(context.Background(), ports.DecisionDiscard)
	d, err = c.Confirm(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ports.DecisionDiscard, d)
}

func TestDecide(t *testing.T) {
	d, err := ports.Decide(ports.DecisionSave).Confirm(context.Background(), ports.ConfirmRequest{})
	require.NoError(t, err)
	assert.Equal(t, ports.DecisionSave, d)
}
