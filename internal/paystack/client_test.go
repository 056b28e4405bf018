package paystack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySuccess(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"ref-123","amount":5500000}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_abc")
	err := c.Verify(context.Background(), "ref-123")
	require.NoError(t, err)
	assert.Equal(t, "/transaction/verify/ref-123", gotPath)
	assert.Equal(t, "Bearer sk_test_abc", gotAuth)
}

func TestVerifyDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"abandoned","reference":"ref-123"}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "sk").Verify(context.Background(), "ref-123")
	assert.ErrorIs(t, err, ErrDeclined)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestVerifyUnknownReferenceIsDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "sk").Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestVerifyGatewayErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "sk").Verify(context.Background(), "ref-123")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrDeclined)
}

func TestVerifyNetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	err := NewClient(srv.URL, "sk").Verify(context.Background(), "ref-123")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestVerifyMalformedBodyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>nope</html>`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "sk").Verify(context.Background(), "ref-123")
	assert.ErrorIs(t, err, ErrUnavailable)
}
