package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestHashVerify(t *testing.T) {
	encoded, err := Hash("042917")
	require.NoError(t, err)

	assert.NotContains(t, encoded, "042917")
	assert.True(t, Verify("042917", encoded))
	assert.False(t, Verify("042918", encoded))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	assert.False(t, Verify("123456", ""))
	assert.False(t, Verify("123456", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
	assert.False(t, Verify("123456", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA"))
}
