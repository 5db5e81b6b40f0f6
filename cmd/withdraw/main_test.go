package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	. "github.com/alexdcox/cardano-contracts"
	"github.com/stretchr/testify/assert"
)

func TestFormatAda(t *testing.T) {
	assert.Equal(t, "0.000001", formatAda(1))
	assert.Equal(t, "12.500000", formatAda(12_500_000))
}

func TestPrintDeposits(t *testing.T) {
	var out bytes.Buffer
	printDeposits(&out, nil)
	assert.Equal(t, "No pending deposits recorded.\n", out.String())

	out.Reset()
	printDeposits(&out, []DepositRecord{
		{TxHash: strings.Repeat("01", 32), Lovelace: 5_000_000, LockUntil: 0, Beneficiary: "addr_test1beneficiary"},
		{TxHash: strings.Repeat("02", 32), Lovelace: 1, LockUntil: time.Now().Add(time.Hour).UnixMilli(), Beneficiary: "addr_test1beneficiary"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "5.000000 ADA  unlocked until 1970-01-01T00:00:00Z")
	assert.Contains(t, lines[1], "0.000001 ADA  locked until")
	assert.True(t, strings.HasPrefix(lines[1], strings.Repeat("02", 32)))
}
