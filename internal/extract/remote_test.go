package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chatServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(handler))
}

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func newTestRemote(url string) *RemoteLLM {
	return NewRemoteLLM(RemoteConfig{
		APIKey:            "test",
		Model:             "gpt-4o",
		BaseURL:           url,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, discardLogger())
}

func TestRemoteLLM_ExtractProducesBothEntitiesWithoutOffsets(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(`{"account_number": "12345", "name": "Jane Doe"}`))
	})
	defer srv.Close()

	ents, err := newTestRemote(srv.URL).Extract(context.Background(), "Name: Jane Doe\nAcc No: 12345\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ents) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(ents))
	}
	for _, e := range ents {
		if e.HasOffsets() {
			t.Errorf("remote backend must not populate offsets, got %+v", e)
		}
		if e.Confidence != nil {
			t.Errorf("remote backend must not populate confidence, got %+v", e)
		}
	}
	if ents[0].Label != LabelAccountNumber || ents[0].Text != "12345" {
		t.Errorf("unexpected first entity: %+v", ents[0])
	}
	if ents[1].Label != LabelPerson || ents[1].Text != "Jane Doe" {
		t.Errorf("unexpected second entity: %+v", ents[1])
	}
}

func TestRemoteLLM_FencedResponseParsesAfterOneCleanupPass(t *testing.T) {
	content := "```json\n{\"account_number\": \"12345\",\n\"name\": \"Jane Doe\"}\n```"
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(content))
	})
	defer srv.Close()

	ents, err := newTestRemote(srv.URL).Extract(context.Background(), "header")
	if err != nil {
		t.Fatalf("expected cleanup pass to recover, got error: %v", err)
	}
	if len(ents) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(ents))
	}
}

func TestRemoteLLM_MissingFieldIsHardFailure(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(`{"account_number": "12345"}`))
	})
	defer srv.Close()

	if _, err := newTestRemote(srv.URL).Extract(context.Background(), "header"); err == nil {
		t.Fatal("expected error for missing name field")
	}
}

func TestRemoteLLM_EmptyFieldAfterTrimIsHardFailure(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(`{"account_number": "  ", "name": "Jane Doe"}`))
	})
	defer srv.Close()

	if _, err := newTestRemote(srv.URL).Extract(context.Background(), "header"); err == nil {
		t.Fatal("expected error for whitespace-only account number")
	}
}

func TestRemoteLLM_RateLimitStatusIsRetryable(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	defer srv.Close()

	_, err := newTestRemote(srv.URL).Extract(context.Background(), "header")
	if err == nil {
		t.Fatal("expected error")
	}
	var retryErr *RetryableError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected RetryableError, got %T: %v", err, err)
	}
	if retryErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", retryErr.StatusCode)
	}
}

func TestRemoteLLM_BadRequestIsNotRetryable(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})
	defer srv.Close()

	_, err := newTestRemote(srv.URL).Extract(context.Background(), "header")
	if err == nil {
		t.Fatal("expected error")
	}
	var retryErr *RetryableError
	if errors.As(err, &retryErr) {
		t.Fatalf("4xx other than 429 must not be retryable: %v", err)
	}
}

func TestParseStatementFields_RejectsGarbageEvenAfterCleanup(t *testing.T) {
	if _, err := parseStatementFields([]byte("not json at all")); err == nil {
		t.Fatal("expected failure for unparseable response")
	}
}

func TestParseStatementFields_RejectsExtraKeys(t *testing.T) {
	raw := []byte(`{"account_number": "1", "name": "A", "balance": "100"}`)
	if _, err := parseStatementFields(raw); err == nil {
		t.Fatal("expected failure for extra keys")
	}
}
