package relay

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owetally/tally/push"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseAddr:            server.URL,
		DeviceID:            "device-1",
		APIKey:              "test-key",
		StreamReconnectWait: 10 * time.Millisecond,
		HTTPMaxRetryCount:   1,
	})
	require.NoError(t, err)
	return client
}

func TestRegister(t *testing.T) {
	t.Parallel()
	router := mux.NewRouter()
	router.HandleFunc("/v1/devices", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		payload, err := gabs.ParseJSONBuffer(r.Body)
		require.NoError(t, err)
		deviceID, _ := payload.Path("device_id").Data().(string)
		assert.Equal(t, "device-1", deviceID)

		fmt.Fprint(w, `{"token":"relay-token-1"}`)
	}).Methods(http.MethodPost)

	client := newTestClient(t, router)

	token, err := client.Register(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "relay-token-1", token)
}

func TestRegisterRetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	var calls int
	router := mux.NewRouter()
	router.HandleFunc("/v1/devices", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"token":"relay-token-2"}`)
	}).Methods(http.MethodPost)

	client := newTestClient(t, router)

	token, err := client.Register(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "relay-token-2", token)
	assert.Equal(t, 2, calls)
}

func TestRegisterBadResponse(t *testing.T) {
	t.Parallel()
	router := mux.NewRouter()
	router.HandleFunc("/v1/devices", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected":"shape"}`)
	}).Methods(http.MethodPost)

	client := newTestClient(t, router)

	_, err := client.Register(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token in register response")
}

func TestSubscribeStream(t *testing.T) {
	t.Parallel()
	router := mux.NewRouter()
	router.HandleFunc("/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stream-token", r.URL.Query().Get("token"))

		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		fmt.Fprintln(w, `{"notification":{"title":"New debt assigned","body":"Lena assigned you a new debt."}}`)
		fmt.Fprintln(w, `not json`)
		fmt.Fprintln(w, `{"notification":{"title":"Confirm debt status","body":"Bob marked this debt as paid. Please confirm:"}}`)
		flusher.Flush()

		// Hold the stream open until the subscriber goes away.
		<-r.Context().Done()
	}).Methods(http.MethodGet)

	client := newTestClient(t, router)

	received := make(chan push.Message, 10)
	unsubscribe, err := client.Subscribe(context.Background(), "stream-token", func(msg push.Message) {
		received <- msg
	})
	require.NoError(t, err)
	defer unsubscribe()

	collect := func() push.Message {
		select {
		case msg := <-received:
			return msg
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a streamed message")
			return push.Message{}
		}
	}

	first := collect()
	assert.Equal(t, "New debt assigned", first.Title)
	assert.Equal(t, "Lena assigned you a new debt.", first.Body)

	// The unparseable line is skipped, not fatal to the stream.
	second := collect()
	assert.Equal(t, "Confirm debt status", second.Title)
	assert.Equal(t, "Bob marked this debt as paid. Please confirm:", second.Body)

	unsubscribe()
	select {
	case msg := <-received:
		t.Fatalf("got message %+v after unsubscribing", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
