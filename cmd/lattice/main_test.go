package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/latticepricing/internal/pricing/application"
)

func defaultOptions() options {
	return options{
		kind: "CALL", style: "EUROPEAN",
		strike: 100, maturity: 1, spot: 100, volatility: 0.2, rate: 0.05, steps: 2,
		direction: "UP", knock: "OUT",
	}
}

func TestRunLocalRendersLattices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), defaultOptions(), &buf))

	out := buf.String()
	assert.Contains(t, out, "price    9.540501")
	assert.Contains(t, out, "underlying lattice:")
	assert.Contains(t, out, "value lattice:")
	assert.NotContains(t, out, "after lattice:")
}

func TestRunLocalKnockInJSON(t *testing.T) {
	o := defaultOptions()
	o.barrier = 110
	o.knock = "IN"
	o.asJSON = true

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), o, &buf))

	var dto application.PriceOptionDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dto))
	assert.Len(t, dto.AfterLattice, 3)
	assert.NotEmpty(t, dto.CrossedNodes)
}

func TestRunLocalRejectsBadInput(t *testing.T) {
	o := defaultOptions()
	o.style = "BERMUDAN"
	require.Error(t, run(context.Background(), o, &bytes.Buffer{}))

	o = defaultOptions()
	o.barrier = 90
	require.Error(t, run(context.Background(), o, &bytes.Buffer{}))
}
