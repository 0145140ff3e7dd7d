package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/senyabanana/clinic-offer-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimitOffset(t *testing.T) {
	limit, offset, err := ParseLimitOffset("", "")
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 0, offset)

	limit, offset, err = ParseLimitOffset("20", "40")
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)

	_, _, err = ParseLimitOffset("0", "")
	assert.Error(t, err)
	_, _, err = ParseLimitOffset("51", "")
	assert.Error(t, err)
	_, _, err = ParseLimitOffset("10", "-1")
	assert.Error(t, err)
	_, _, err = ParseLimitOffset("ten", "")
	assert.Error(t, err)
}

func TestSendError(t *testing.T) {
	w := httptest.NewRecorder()
	SendError(w, models.ErrDuplicateOffer, "failed")

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "DuplicateOffer", body["code"])

	w = httptest.NewRecorder()
	SendError(w, errors.New("connection refused"), "failed to submit offer")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "failed to submit offer", body["reason"])
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.False(t, Contains[string](nil, "a"))
}
