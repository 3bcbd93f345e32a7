package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	t.Run("SetPassword stores a hash, not the plaintext", func(t *testing.T) {
		user := &User{Email: "admin@lenskeep.local"}
		require.NoError(t, user.SetPassword("correct horse battery staple"))

		assert.NotEmpty(t, user.Password)
		assert.NotEqual(t, "correct horse battery staple", user.Password)
	})

	t.Run("CheckPassword accepts the right password only", func(t *testing.T) {
		user := &User{Email: "admin@lenskeep.local"}
		require.NoError(t, user.SetPassword("s3cret-pass"))

		assert.True(t, user.CheckPassword("s3cret-pass"))
		assert.False(t, user.CheckPassword("wrong"))
		assert.False(t, user.CheckPassword(""))
	})
}
