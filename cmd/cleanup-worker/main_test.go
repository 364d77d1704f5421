package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type stubSweeper struct {
	res *services.SweepResult
	err error
}

func (s stubSweeper) Sweep(context.Context, time.Time) (*services.SweepResult, error) {
	return s.res, s.err
}

func TestSweepEndpoint(t *testing.T) {
	h := newRouter(stubSweeper{res: &services.SweepResult{UsersDeleted: 2, EventsDeleted: 1}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sweep", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"usersDeleted":2,"eventsDeleted":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sweep", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSweepEndpointFailure(t *testing.T) {
	h := newRouter(stubSweeper{err: errors.New("store down")})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sweep", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
