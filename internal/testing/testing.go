// package testing contains shared testing utilities
package testing

import (
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RoundTripFunc adapts a function to [http.RoundTripper]
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// testSigningKey signs tokens minted for tests; clients never verify signatures.
var testSigningKey = []byte("litfav-test-signing-key")

// MintToken returns an HS256 JWT expiring at exp with the given subject.
func MintToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return signed
}

// ValidToken returns a token that expires an hour from now.
func ValidToken(t *testing.T, subject string) string {
	t.Helper()
	return MintToken(t, subject, time.Now().Add(time.Hour))
}

// ExpiredToken returns a token that expired an hour ago.
func ExpiredToken(t *testing.T, subject string) string {
	t.Helper()
	return MintToken(t, subject, time.Now().Add(-time.Hour))
}

// Notice is one notification captured by [RecordingNotifier].
type Notice struct {
	Level   string
	Message string
}

// RecordingNotifier captures user-facing notifications.
type RecordingNotifier struct {
	mu      sync.Mutex
	Notices []Notice
}

func (n *RecordingNotifier) record(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notices = append(n.Notices, Notice{Level: level, Message: msg})
}

func (n *RecordingNotifier) Success(msg string) { n.record("success", msg) }
func (n *RecordingNotifier) Info(msg string)    { n.record("info", msg) }
func (n *RecordingNotifier) Error(msg string)   { n.record("error", msg) }

// Count returns the number of notices at level.
func (n *RecordingNotifier) Count(level string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, notice := range n.Notices {
		if notice.Level == level {
			c++
		}
	}
	return c
}

// RecordingNavigator counts sign-in redirects.
type RecordingNavigator struct {
	mu      sync.Mutex
	SignIns int
}

func (n *RecordingNavigator) SignIn() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.SignIns++
}

// Count returns the number of sign-in redirects.
func (n *RecordingNavigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.SignIns
}
