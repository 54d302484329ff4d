package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPostsBatch(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	wh := New(WithURL(srv.URL))
	acked := false
	err := wh.Send(context.Background(), func() { acked = true },
		kawa.Message[types.Record]{Value: types.Record{"Operation": "TokenIssued"}},
		kawa.Message[types.Record]{Value: types.Record{"Operation": "SendMail"}},
	)
	require.NoError(t, err)
	assert.True(t, acked)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-ndjson", gotContentType)
	assert.Equal(t, "{\"Operation\":\"TokenIssued\"}\n{\"Operation\":\"SendMail\"}\n", string(gotBody))
}

func TestWebhookRejectsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collector down", http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := New(WithURL(srv.URL))
	err := wh.Send(context.Background(), nil,
		kawa.Message[types.Record]{Value: types.Record{}},
	)
	require.Error(t, err)
}

func TestWebhookRequiresURL(t *testing.T) {
	err := New().Send(context.Background(), nil,
		kawa.Message[types.Record]{Value: types.Record{}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}
