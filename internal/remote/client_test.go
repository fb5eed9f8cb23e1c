package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auravita/privacykit/internal/audit"
	"github.com/auravita/privacykit/internal/common"
)

func TestFetchSalt(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"present", http.StatusOK, `{"encryption_salt":"00112233445566778899aabbccddeeff"}`, "00112233445566778899aabbccddeeff", nil},
		{"empty field", http.StatusOK, `{"encryption_salt":""}`, "", common.ErrorNotFound},
		{"not found", http.StatusNotFound, `{}`, "", common.ErrorNotFound},
		{"unauthorized", http.StatusUnauthorized, `{}`, "", common.ErrorUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/v1/profile/salt", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, StaticToken("tok"))
			salt, err := c.FetchSalt(context.Background(), "user-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, salt)
		})
	}
}

func TestSaveSalt(t *testing.T) {
	var received saltPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/profile/salt", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	require.NoError(t, c.SaveSalt(context.Background(), "user-1", "aabb"))
	assert.Equal(t, "aabb", received.EncryptionSalt)
}

func TestSaveSalt_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	assert.ErrorIs(t, c.SaveSalt(context.Background(), "user-1", "aabb"), common.ErrSaltConflict)
}

func TestAppend(t *testing.T) {
	var received audit.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/audit/events", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	err := c.Append(context.Background(), &audit.Event{
		ID:           "e1",
		UserID:       "user-1",
		Action:       audit.ActionDecrypt,
		ResourceType: audit.ResourceJournal,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, audit.ActionDecrypt, received.Action)
}

func TestAppend_ServerErrorSurfacesToSink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	assert.Error(t, c.Append(context.Background(), &audit.Event{ID: "e1"}))
}

func TestDo_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, StaticToken("tok"))
	_, err := c.FetchSalt(ctx, "user-1")
	assert.Error(t, err)
}
