package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPhoneNumber(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		expected string
	}{
		{name: "empty", phone: "", expected: ""},
		{name: "international", phone: "+1234567890", expected: "+******7890"},
		{name: "short with plus", phone: "+123", expected: "+***"},
		{name: "without plus", phone: "5551234567", expected: "******4567"},
		{name: "very short", phone: "123", expected: "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskPhoneNumber(tt.phone))
		})
	}
}

func TestMaskHandle(t *testing.T) {
	assert.Equal(t, "", MaskHandle(""))
	assert.Equal(t, "@a********th", MaskHandle("@alice_smith"))
	assert.Equal(t, "a********th", MaskHandle("alice_smith"))
	assert.Equal(t, "@**", MaskHandle("@ab"))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", MaskToken(""))
	assert.Equal(t, "****", MaskToken("1234"))
	assert.Equal(t, "**********3456", MaskToken("12345678903456"))
}

func TestMaskSensitiveFields(t *testing.T) {
	masked := MaskSensitiveFields(map[string]interface{}{
		"sender":   "+1234567890",
		"username": "alice_smith",
		"token":    "110201543:AAH",
		"count":    3,
		"other":    "untouched",
	})

	assert.Equal(t, "+******7890", masked["sender"])
	assert.Equal(t, "a********th", masked["username"])
	assert.NotContains(t, masked["token"], "110201543:")
	assert.Equal(t, 3, masked["count"])
	assert.Equal(t, "untouched", masked["other"])

	assert.Nil(t, MaskSensitiveFields(nil))
}
