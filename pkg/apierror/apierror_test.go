package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantDetails string
	}{
		{"message and details", http.StatusConflict, `{"message":"booking completed","details":"cannot cancel"}`, "booking completed", "cannot cancel"},
		{"gin style error field", http.StatusBadRequest, `{"error":"invalid seats"}`, "invalid seats", ""},
		{"message wins over error", http.StatusBadRequest, `{"error":"x","message":"y"}`, "y", ""},
		{"empty body", http.StatusInternalServerError, ``, DefaultMessage, ""},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, DefaultMessage, ""},
		{"object details", http.StatusUnprocessableEntity, `{"message":"invalid","details":{"field":"email"}}`, "invalid", `{"field":"email"}`},
		{"boolean error flag", http.StatusBadRequest, `{"error":true}`, DefaultMessage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.Equal(t, tt.wantDetails, err.Details)
		})
	}
}

func TestNoResponseKeepsCause(t *testing.T) {
	err := NoResponse(context.DeadlineExceeded)

	assert.Equal(t, 0, err.Status)
	assert.Equal(t, "No response from server", err.Message)
	assert.Equal(t, "Network error or server is down", err.Details)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsNetwork(err))
}

func TestRequestFailed(t *testing.T) {
	err := RequestFailed(errors.New("json: unsupported type"))

	assert.Equal(t, 0, err.Status)
	assert.Equal(t, "Request failed", err.Message)
	assert.Equal(t, "json: unsupported type", err.Details)
	assert.Equal(t, "Request failed: json: unsupported type", err.Error())
}

func TestFromWrapsForeignErrors(t *testing.T) {
	original := New(http.StatusNotFound, "route not found", "")
	wrapped := fmt.Errorf("load route: %w", original)

	require.Same(t, original, From(wrapped))
	assert.True(t, IsNotFound(wrapped))

	plain := From(errors.New("boom"))
	assert.Equal(t, RequestFailedMsg, plain.Message)
	assert.Nil(t, From(nil))
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsUnauthorized(New(http.StatusUnauthorized, "", "")))
	assert.False(t, IsUnauthorized(errors.New("plain")))
	assert.Equal(t, 0, StatusOf(nil))
	assert.Equal(t, "", (*APIError)(nil).Error())
}
