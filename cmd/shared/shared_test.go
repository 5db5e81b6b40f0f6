package shared

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPrintSubmitted(t *testing.T) {
	hash := "d36a2619a672494604e11bb447cbcf5231e9f2ba25c2169177edc941bd50ad6c"

	out := &bytes.Buffer{}
	PrintSubmitted(out, "Deposit", hash, nil)
	assert.Equal(t, "Deposit transaction submitted successfully: "+hash+"\n", out.String())

	out.Reset()
	PrintSubmitted(out, "Deposit", hash, errors.WithStack(context.DeadlineExceeded))
	assert.Equal(t, "Deposit transaction submitted but not confirmed: "+hash+"\n", out.String())
	assert.NotContains(t, out.String(), "successfully")
}
