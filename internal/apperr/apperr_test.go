package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapsKinds(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindAuth, http.StatusUnauthorized},
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindPermission, http.StatusForbidden},
		{KindPersistence, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(New(tc.kind, "boom")), "kind %d", tc.kind)
	}
}

func TestStatusUnclassifiedErrorIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("plain")))
	assert.Equal(t, KindPersistence, KindOf(errors.New("plain")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(KindNotFound, "task not found", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
	assert.Equal(t, "task not found", MessageOf(err))
}

func TestMessageOfHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "operation failed", MessageOf(errors.New("pq: deadlock detected")))
}

func TestStatusSeesThroughWrapping(t *testing.T) {
	inner := New(KindPermission, "not your task")
	outer := errors.Join(errors.New("list tasks"), inner)
	assert.Equal(t, http.StatusForbidden, Status(outer))
}
