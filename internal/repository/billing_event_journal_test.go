package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"genquota-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/supabase-go"
)

func TestSupabaseBillingJournal_Record(t *testing.T) {
	var (
		mu       sync.Mutex
		gotPath  string
		gotBody  map[string]interface{}
		gotCalls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotCalls++
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client, err := supabase.NewClient(srv.URL, "service-key", &supabase.ClientOptions{})
	require.NoError(t, err)

	journal := NewSupabaseBillingJournal(client, NewMockLogger())
	err = journal.Record(context.Background(), domain.BillingEventRecord{
		EventID:   "evt-1",
		Type:      domain.EventNonRenewingPurchase,
		DeviceID:  "dev-1",
		ProductID: "credits_25",
		Credits:   25,
		Result:    string(domain.WebhookApplied),
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, gotCalls)
	assert.True(t, strings.HasSuffix(gotPath, "/billing_events"), "unexpected path %s", gotPath)
	assert.Equal(t, "evt-1", gotBody["event_id"])
	assert.Equal(t, "dev-1", gotBody["device_id"])
	assert.EqualValues(t, 25, gotBody["credits"])
}

func TestSupabaseBillingJournal_NotInitialized(t *testing.T) {
	journal := NewSupabaseBillingJournal(nil, NewMockLogger())
	assert.Error(t, journal.Record(context.Background(), domain.BillingEventRecord{Type: "RENEWAL"}))
	assert.NoError(t, NoopBillingJournal{}.Record(context.Background(), domain.BillingEventRecord{}))
}
