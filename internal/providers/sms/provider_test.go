package sms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********3210", MaskPhone("+919876543210"))
	assert.Equal(t, "****", MaskPhone("123"))
}

func TestLogProviderNeverLogsMessage(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogProvider(zap.New(core))

	assert.NoError(t, p.Send(context.Background(), "+919876543210", "Your code is 123456"))
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "*********3210", fields["to"])
		assert.EqualValues(t, 19, fields["length"])
		for _, v := range fields {
			if str, ok := v.(string); ok {
				assert.NotContains(t, str, "123456")
			}
		}
	}
}
