package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	client := New(30 * time.Second)

	if client == nil {
		t.Fatal("New returned nil")
	}

	if client.Timeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %v", client.Timeout)
	}

	if client.maxRedirects != 10 {
		t.Errorf("Expected maxRedirects 10, got %d", client.maxRedirects)
	}

	if !client.blockPrivateIP {
		t.Error("Expected blockPrivateIP to be true")
	}
}

func TestNewLoopback(t *testing.T) {
	client := NewLoopback(5 * time.Second)

	if client.blockPrivateIP {
		t.Error("Expected loopback client to allow private IPs")
	}

	if _, err := client.ValidateURL("http://127.0.0.1:8670/health"); err != nil {
		t.Errorf("Loopback client rejected 127.0.0.1: %v", err)
	}
}

func TestValidateURL(t *testing.T) {
	client := New(30 * time.Second)

	tests := []struct {
		name        string
		url         string
		shouldErr   bool
		errContains string
	}{
		// Valid report URLs
		{
			name:      "HTTPS report URL",
			url:       "https://ci.example.com/artifacts/scan.json",
			shouldErr: false,
		},
		{
			name:      "HTTP report URL",
			url:       "http://example.com/report.nessus",
			shouldErr: false,
		},

		// Invalid schemes
		{
			name:        "File scheme blocked",
			url:         "file:///etc/passwd",
			shouldErr:   true,
			errContains: "scheme",
		},
		{
			name:        "FTP scheme blocked",
			url:         "ftp://example.com/scan.xml",
			shouldErr:   true,
			errContains: "scheme",
		},
		{
			name:        "Gopher scheme blocked",
			url:         "gopher://example.com",
			shouldErr:   true,
			errContains: "scheme",
		},

		// Localhost variants
		{
			name:        "Localhost blocked",
			url:         "http://localhost/admin",
			shouldErr:   true,
			errContains: "localhost",
		},
		{
			name:        "127.0.0.1 blocked",
			url:         "http://127.0.0.1/",
			shouldErr:   true,
			errContains: "private IP",
		},
		{
			name:        "Localhost subdomain blocked",
			url:         "http://admin.localhost/",
			shouldErr:   true,
			errContains: "localhost",
		},

		// Private IPs
		{
			name:        "10.x private network blocked",
			url:         "http://10.0.0.1/",
			shouldErr:   true,
			errContains: "private IP",
		},
		{
			name:        "192.168.x private network blocked",
			url:         "http://192.168.1.1/",
			shouldErr:   true,
			errContains: "private IP",
		},
		{
			name:        "172.16.x private network blocked",
			url:         "http://172.16.0.1/",
			shouldErr:   true,
			errContains: "private IP",
		},
		{
			name:        "Link-local metadata endpoint blocked",
			url:         "http://169.254.169.254/latest/meta-data",
			shouldErr:   true,
			errContains: "private IP",
		},

		// Forgery vectors
		{
			name:        "Credential confusion blocked",
			url:         "http://evil.com@localhost/",
			shouldErr:   true,
			errContains: "@",
		},
		{
			name:        "Missing hostname",
			url:         "http:///path-only",
			shouldErr:   true,
			errContains: "hostname",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ValidateURL(tt.url)

			if tt.shouldErr {
				if err == nil {
					t.Errorf("Expected error for %s, got none", tt.url)
					return
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Expected error containing %q, got: %v", tt.errContains, err)
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.url, err)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.0.0.1", true},
		{"172.16.5.5", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"169.254.169.254", true},
		{"0.0.0.0", true},
		{"224.0.0.1", true},
		{"8.8.8.8", false},
		{"93.184.216.34", false},
		{"::1", true},
		{"fe80::1", true},
		{"fc00::1", true},
		{"fd12:3456::1", true},
		{"2001:db8::1", true},
		{"2606:4700::1111", false},
	}

	for _, tt := range tests {
		ip := net.ParseIP(tt.ip)
		if ip == nil {
			t.Fatalf("Failed to parse IP %s", tt.ip)
		}

		if got := isPrivateIP(ip); got != tt.private {
			t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
}

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		hostname string
		want     bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"localhost.localdomain", true},
		{"admin.localhost", true},
		{"example.com", false},
		{"notlocalhost.com", false},
	}

	for _, tt := range tests {
		if got := isLocalhost(tt.hostname); got != tt.want {
			t.Errorf("isLocalhost(%q) = %v, want %v", tt.hostname, got, tt.want)
		}
	}
}

func TestFetchReport(t *testing.T) {
	body := `{"version":"5.22.3","profiles":[]}`
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer testServer.Close()

	// httptest binds to 127.0.0.1, so the strict client would refuse it
	client := NewLoopback(5 * time.Second)

	data, filename, err := client.FetchReport(context.Background(), testServer.URL+"/artifacts/scan-results.json", 1<<20)
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	if string(data) != body {
		t.Errorf("Expected body %q, got %q", body, string(data))
	}

	if filename != "scan-results.json" {
		t.Errorf("Expected filename from URL path, got %q", filename)
	}
}

func TestFetchReportContentDisposition(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="nightly-scan.nessus"`)
		w.Write([]byte("<NessusClientData_v2/>"))
	}))
	defer testServer.Close()

	client := NewLoopback(5 * time.Second)

	_, filename, err := client.FetchReport(context.Background(), testServer.URL+"/download", 1<<20)
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	if filename != "nightly-scan.nessus" {
		t.Errorf("Expected filename from Content-Disposition, got %q", filename)
	}
}

func TestFetchReportSizeLimit(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer testServer.Close()

	client := NewLoopback(5 * time.Second)

	_, _, err := client.FetchReport(context.Background(), testServer.URL, 1024)
	if err == nil {
		t.Fatal("Expected size limit error, got none")
	}
	if !strings.Contains(err.Error(), "limit") {
		t.Errorf("Expected limit error, got: %v", err)
	}
}

func TestFetchReportErrorStatus(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer testServer.Close()

	client := NewLoopback(5 * time.Second)

	_, _, err := client.FetchReport(context.Background(), testServer.URL+"/missing.json", 1<<20)
	if err == nil {
		t.Fatal("Expected error for 404 response, got none")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status in error, got: %v", err)
	}
}

func TestRedirectProtection(t *testing.T) {
	client := New(5 * time.Second)

	// A public first hop redirecting into link-local metadata space
	req, err := http.NewRequest(http.MethodGet, "http://169.254.169.254/latest/meta-data", nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	via := []*http.Request{req.Clone(context.Background())}

	if err := client.CheckRedirect(req, via); err == nil {
		t.Fatal("Expected redirect to private IP to be blocked")
	} else if !strings.Contains(err.Error(), "redirect blocked") {
		t.Errorf("Expected redirect blocked error, got: %v", err)
	}
}

func TestMaxRedirects(t *testing.T) {
	client := New(5 * time.Second)

	req, err := http.NewRequest(http.MethodGet, "https://example.com/report.json", nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}

	via := make([]*http.Request, 10)
	for i := range via {
		via[i] = req.Clone(context.Background())
	}

	if err := client.CheckRedirect(req, via); err == nil {
		t.Fatal("Expected max redirects error")
	} else if !strings.Contains(err.Error(), "redirects") {
		t.Errorf("Expected redirects error, got: %v", err)
	}
}

func TestReportFilenameFallback(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer testServer.Close()

	client := NewLoopback(5 * time.Second)

	_, filename, err := client.FetchReport(context.Background(), testServer.URL, 1<<20)
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	if filename != "report" {
		t.Errorf("Expected fallback filename, got %q", filename)
	}
}
