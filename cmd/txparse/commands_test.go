package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Success(t *testing.T) {
	var buf bytes.Buffer
	res := parser.Normalize("```json\n{\"amount\": 4.5, \"category\": \"FOOD\", \"description\": \"coffee\", \"confidence\": 0.9}\n```")

	require.NoError(t, report(&buf, res, false))

	var out output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.NotNil(t, out.Parsed)
	assert.Equal(t, 4.5, out.Parsed.Amount)
	assert.Equal(t, domain.CategoryFood, out.Parsed.Category)
	assert.Empty(t, out.Error)
}

func TestReport_FailureReturnsReason(t *testing.T) {
	var buf bytes.Buffer

	err := report(&buf, parser.Normalize("sorry, I can't help"), true)
	require.EqualError(t, err, "no JSON found")
	assert.Contains(t, buf.String(), `"error": "no JSON found"`)
}

func TestReport_InvalidCandidate(t *testing.T) {
	var buf bytes.Buffer

	err := report(&buf, parser.Normalize(`{"category": "FOOD"}`), false)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"candidate"`)
}
