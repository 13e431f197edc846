package youtube

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"tubeinsight/shared/pipeline"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("component", "test")
}

func TestSaveAndLoadToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")

	original := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := saveToken(tokenFile, original); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}

	loaded, err := tokenFromFile(tokenFile)
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if loaded.RefreshToken != original.RefreshToken {
		t.Errorf("refresh token = %q, want %q", loaded.RefreshToken, original.RefreshToken)
	}

	info, err := os.Stat(tokenFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file permissions = %v, want 0600", info.Mode().Perm())
	}
}

func TestSaveTokenNestedDirectory(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "nested", "dir", "token.json")

	if err := saveToken(tokenFile, &oauth2.Token{AccessToken: "a"}); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	if _, err := os.Stat(tokenFile); err != nil {
		t.Errorf("token file not created: %v", err)
	}
}

func TestTokenFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := tokenFromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}

	badFile := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badFile, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := tokenFromFile(badFile); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestGetToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	// Empty endpoint so the device flow fails fast instead of reaching the
	// network.
	oauthConfig := &oauth2.Config{ClientID: "id", ClientSecret: "secret"}

	t.Run("ValidToken", func(t *testing.T) {
		valid := &oauth2.Token{
			AccessToken: "valid",
			Expiry:      time.Now().Add(time.Hour),
		}
		if err := saveToken(tokenFile, valid); err != nil {
			t.Fatal(err)
		}

		tok, err := getToken(oauthConfig, tokenFile, testLog())
		if err != nil {
			t.Fatalf("getToken failed: %v", err)
		}
		if tok.AccessToken != "valid" {
			t.Errorf("access token = %q", tok.AccessToken)
		}
	})

	t.Run("ExpiredWithRefresh", func(t *testing.T) {
		expired := &oauth2.Token{
			AccessToken:  "expired",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(-time.Hour),
		}
		if err := saveToken(tokenFile, expired); err != nil {
			t.Fatal(err)
		}

		tok, err := getToken(oauthConfig, tokenFile, testLog())
		if err != nil {
			t.Fatalf("getToken failed: %v", err)
		}
		if tok.RefreshToken != "refresh" {
			t.Errorf("refresh token = %q", tok.RefreshToken)
		}
	})

	t.Run("NoTokenFile", func(t *testing.T) {
		os.Remove(tokenFile)
		if _, err := getToken(oauthConfig, tokenFile, testLog()); err == nil {
			t.Error("expected an error when no token exists and the device flow cannot run")
		}
	})
}

func TestTokenSaverConcurrency(t *testing.T) {
	ts := &tokenSaver{
		config: &oauth2.Config{ClientID: "test"},
		token: &oauth2.Token{
			AccessToken:  "initial",
			RefreshToken: "refresh",
		},
		tokenFile: filepath.Join(t.TempDir(), "token.json"),
		log:       testLog(),
	}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			_, _ = ts.Token()
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{
			name:     "not found",
			err:      &googleapi.Error{Code: 404},
			sentinel: pipeline.ErrNotFound,
		},
		{
			name: "quota exceeded",
			err: &googleapi.Error{
				Code:   403,
				Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}},
			},
			sentinel: pipeline.ErrQuotaExceeded,
		},
		{
			name: "rate limited",
			err: &googleapi.Error{
				Code:   403,
				Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}},
			},
			sentinel: pipeline.ErrQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.err)
			if !errors.Is(got, tt.sentinel) {
				t.Errorf("classifyAPIError(%v) = %v, want %v", tt.err, got, tt.sentinel)
			}
		})
	}

	t.Run("forbidden without quota reason", func(t *testing.T) {
		err := &googleapi.Error{Code: 403}
		got := classifyAPIError(err)
		if errors.Is(got, pipeline.ErrQuotaExceeded) {
			t.Error("plain 403 should not map to quota exhaustion")
		}
	})

	t.Run("plain error passes through", func(t *testing.T) {
		plain := errors.New("transport down")
		if got := classifyAPIError(plain); got != plain {
			t.Errorf("plain error changed: %v", got)
		}
	})
}
