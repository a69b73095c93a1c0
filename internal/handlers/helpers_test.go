package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/database"
	"github.com/bonkboard/backend/internal/db"
	"github.com/bonkboard/backend/internal/filestore"
	"github.com/bonkboard/backend/internal/services"
)

var mp3Payload = []byte("ID3\x04\x00\x00\x00\x00\x00\x00fake audio")

// testEnv is the handler-level slice of the application: real services over
// a throwaway database, with a session-less hub.
type testEnv struct {
	hub        *broker.Hub
	stats      *services.StatsService
	sounds     *services.SoundService
	milestones *services.MilestoneService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := database.RunMigrations(conn); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	queries := db.New(conn)

	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New failed: %v", err)
	}

	boot := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	return &testEnv{
		hub:        broker.NewHub(),
		stats:      services.NewStatsService(0, nil, nil, boot),
		sounds:     services.NewSoundService(queries, files, nil),
		milestones: services.NewMilestoneService(queries, nil),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a sound upload/modify request. A nil audio slice
// omits the file part entirely.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, audio []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write form field %s: %v", name, err)
		}
	}
	if audio != nil {
		part, err := writer.CreateFormFile("file", "upload.mp3")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
