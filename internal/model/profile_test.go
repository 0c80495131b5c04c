package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePatch(t *testing.T) {
	current := User{ID: "1", FirstName: "Jane", LastName: "Doe", PhoneNumber: "0700000000", SchoolName: "Moi Girls"}

	t.Run("no changes", func(t *testing.T) {
		assert.True(t, ComputePatch(current, current).IsEmpty())
	})

	t.Run("blank values never clear fields", func(t *testing.T) {
		desired := current
		desired.PhoneNumber = "   "
		desired.SchoolName = ""
		assert.True(t, ComputePatch(current, desired).IsEmpty())
	})

	t.Run("only changed fields are sent", func(t *testing.T) {
		desired := current
		desired.LastName = "Wanjiru"
		desired.PhoneNumber = " 0711111111 "

		patch := ComputePatch(current, desired)
		body, err := json.Marshal(patch)
		require.NoError(t, err)
		assert.JSONEq(t, `{"last_name":"Wanjiru","phone_number":"0711111111"}`, string(body))

		applied := patch.Apply(current)
		assert.Equal(t, "Wanjiru", applied.LastName)
		assert.Equal(t, "0711111111", applied.PhoneNumber)
		assert.Equal(t, "Jane", applied.FirstName)
	})
}

func TestPhotoUploadURL(t *testing.T) {
	assert.Equal(t, "a", PhotoUpload{URL: "a", ProfilePhoto: "b"}.PhotoURL())
	assert.Equal(t, "b", PhotoUpload{ProfilePhoto: "b"}.PhotoURL())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", User{FirstName: "Jane", LastName: "Doe"}.FullName())
	assert.Equal(t, "Doe", User{LastName: "Doe"}.FullName())
}
