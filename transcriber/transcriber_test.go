package transcriber

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWhisperTranscribe(t *testing.T) {
	var gotAuth, gotModel, gotLang string
	var gotFileSize int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file field missing: %v", err)
		} else {
			buf := make([]byte, 64)
			n, _ := file.Read(buf)
			gotFileSize = n
			file.Close()
		}
		w.Write([]byte(`{"text":"привет мир"}`))
	}))
	defer srv.Close()

	tr := NewWhisper("test-key", srv.URL, "whisper-large-v3-turbo")
	text, err := tr.Transcribe(context.Background(), []byte("RIFFxxxxWAVE"), "ru")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "привет мир" {
		t.Errorf("text = %q, want %q", text, "привет мир")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotModel != "whisper-large-v3-turbo" {
		t.Errorf("model = %q", gotModel)
	}
	if gotLang != "ru" {
		t.Errorf("language = %q", gotLang)
	}
	if gotFileSize != len("RIFFxxxxWAVE") {
		t.Errorf("file size = %d", gotFileSize)
	}
}

func TestWhisperOmitsLanguageWhenEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if _, ok := r.MultipartForm.Value["language"]; ok {
			t.Error("language field should be absent")
		}
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	tr := NewWhisper("k", srv.URL, "m")
	if _, err := tr.Transcribe(context.Background(), []byte("x"), ""); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func TestWhisperAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key"}}`))
	}))
	defer srv.Close()

	tr := NewWhisper("bad", srv.URL, "m")
	_, err := tr.Transcribe(context.Background(), []byte("x"), "")
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("want *Error, got %T: %v", err, err)
	}
	if terr.Kind != KindAPI {
		t.Errorf("kind = %d, want KindAPI", terr.Kind)
	}
	if terr.Code != 401 {
		t.Errorf("code = %d, want 401", terr.Code)
	}
	if !strings.Contains(terr.Message, "Invalid API Key") {
		t.Errorf("message = %q", terr.Message)
	}
}

func TestWhisperConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	tr := NewWhisper("k", srv.URL, "m")
	_, err := tr.Transcribe(context.Background(), []byte("x"), "")
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("want *Error, got %T: %v", err, err)
	}
	if terr.Kind != KindConnection {
		t.Errorf("kind = %d, want KindConnection", terr.Kind)
	}
}

func TestWhisperBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	tr := NewWhisper("k", srv.URL, "m")
	_, err := tr.Transcribe(context.Background(), []byte("x"), "")
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("want *Error, got %T: %v", err, err)
	}
	if terr.Kind != KindOther {
		t.Errorf("kind = %d, want KindOther", terr.Kind)
	}
}

func TestErrorStrings(t *testing.T) {
	for _, tt := range []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindConnection, Message: "dial refused"}, "connection failed: dial refused"},
		{&Error{Kind: KindAPI, Code: 429, Message: "rate limited"}, "API error 429: rate limited"},
		{&Error{Kind: KindOther, Message: "parse"}, "parse"},
	} {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestFakeRecordsCalls(t *testing.T) {
	f := NewFake("hello", nil)
	if _, err := f.Transcribe(context.Background(), []byte("abcd"), "en"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	calls := f.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].WAVBytes != 4 || calls[0].Lang != "en" {
		t.Errorf("call = %+v", calls[0])
	}
}
