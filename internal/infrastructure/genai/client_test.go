package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timeweaver-api/internal/config"
	"github.com/timeweaver-api/internal/domain"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.Config{
		GenAIBaseURL: baseURL,
		GenAIAPIKey:  "test-key",
		GenAIModel:   "test-model",
		GenAITimeout: 5 * time.Second,
	})
}

func validInput() NotificationInput {
	return NotificationInput{
		TargetDate: "2024-06-01T12:00:00Z",
		TimeZone:   "America/Los_Angeles",
		Location:   "America/Los_Angeles",
	}
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		// The prompt must embed all three inputs verbatim.
		assert.Contains(t, req.Messages[0].Content, "2024-06-01T12:00:00Z")
		assert.Contains(t, req.Messages[0].Content, "America/Los_Angeles")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"notificationMessage\":\"Your countdown has ended!\"}"}}]}`))
	}))
	defer srv.Close()

	out, err := testClient(srv.URL).Generate(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "Your countdown has ended!", out.NotificationMessage)
}

func TestGenerate_RejectsEmptyFields(t *testing.T) {
	c := testClient("http://127.0.0.1:0")

	in := validInput()
	in.TimeZone = ""
	_, err := c.Generate(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestGenerate_APIErrorIsGenerationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), validInput())
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerate_EmptyMessageIsGenerationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"notificationMessage\":\"\"}"}}]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), validInput())
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerate_TransportErrorIsGenerationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	_, err := testClient(srv.URL).Generate(context.Background(), validInput())
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}
