package fantrax

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
)

const rosterCSV = "\uFEFF\"ID\",\"Player\",\"Team\",\"Position\",\"Status\",\"Age\"\n" +
	"\"*04ahs*\",\"Connor McDavid\",\"EDM\",\"C\",\"Oilers Fan\",\"27\"\n" +
	"\"*04b1x*\",\"Cale Makar\",\"COL\",\"D\",\"FA\"\n"

func TestParseCSV(t *testing.T) {
	t.Parallel()

	table, err := ParseCSV(strings.NewReader(rosterCSV), 0)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if table.Columns[0] != "ID" || table.Columns[4] != "Status" {
		t.Fatalf("unexpected header: %q", table.Columns)
	}
	if table.Len() != 2 || table.Rows[1][4] != "FA" || table.Rows[1][5] != "" {
		t.Fatalf("unexpected rows: %q", table.Rows)
	}
}

func TestParseCSV_HonoursMaxRows(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("Player,Status\n")
	for i := 0; i < 25; i++ {
		b.WriteString("P" + strconv.Itoa(i) + ",FA\n")
	}

	table, err := ParseCSV(strings.NewReader(b.String()), 10)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if table.Len() != 10 || table.Rows[9][0] != "P9" {
		t.Fatalf("expected first 10 rows, got %d", table.Len())
	}

	if _, err := ParseCSV(strings.NewReader(""), 10); err == nil {
		t.Fatalf("expected error for empty export")
	}
}

func TestClient_FetchSendsCookieAndDate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "JSESSIONID=abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("endDate") != "2026-01-14" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(rosterCSV))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		HTTPClient:    server.Client(),
		ExportURL:     server.URL + "/fxpa/downloadPlayerStats?endDate={today}",
		SessionCookie: "JSESSIONID=abc",
	})
	client.now = func() time.Time { return time.Date(2026, 1, 14, 20, 0, 0, 0, time.UTC) }

	table, err := client.Fetch(context.Background(), dataset.NameRoster)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("unexpected rows: %d", table.Len())
	}

	client.sessionCookie = "JSESSIONID=expired"
	_, err = client.Fetch(context.Background(), dataset.NameRoster)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestClient_FetchRejectsLoginPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>login</html>"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{HTTPClient: server.Client(), ExportURL: server.URL})
	_, err := client.Fetch(context.Background(), dataset.NameRoster)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}

	if _, err := client.Fetch(context.Background(), dataset.NameAllStrengths); err == nil {
		t.Fatalf("expected error for non-roster dataset")
	}
}

func TestClient_RetriesThrottledExport(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Player,Status\nCale Makar,FA\n"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		HTTPClient:   server.Client(),
		ExportURL:    server.URL,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})
	table, err := client.Fetch(context.Background(), dataset.NameRoster)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if table.Len() != 1 || calls.Load() != 2 {
		t.Fatalf("expected one retry, rows=%d calls=%d", table.Len(), calls.Load())
	}
}
