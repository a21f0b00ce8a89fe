// Package httpclient provides hardened HTTP clients for pulling scan
// reports from remote sources. Report URLs often come from user input
// (CLI arguments, watch-dir manifests), so the default client refuses
// private address space and localhost to keep a hostile URL from
// reaching link-local metadata services or internal endpoints.
package httpclient

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/internal/util"
)

// Client wraps http.Client with request-forgery protection.
type Client struct {
	*http.Client
	allowedSchemes []string
	blockPrivateIP bool
	maxRedirects   int
}

// New creates a client for fetching reports from public URLs. Private
// address space, localhost variants, and non-HTTP schemes are refused,
// both up front and again at dial time after DNS resolution.
func New(timeout time.Duration) *Client {
	return NewWithOptions(timeout, Options{})
}

// NewLoopback creates a client with the private-address guard disabled.
// This is the client for talking to a Heimdall server on the local
// machine; never hand it URLs taken from untrusted input.
func NewLoopback(timeout time.Duration) *Client {
	return NewWithOptions(timeout, Options{BlockPrivateIP: util.Ptr(false)})
}

// Options allows customization of the forgery protections.
type Options struct {
	AllowedSchemes []string // Default: ["http", "https"]
	MaxRedirects   *int     // Default: 10
	BlockPrivateIP *bool    // Default: true
}

// NewWithOptions creates a client with custom protection options.
func NewWithOptions(timeout time.Duration, opts Options) *Client {
	blockPrivateIP := true
	if opts.BlockPrivateIP != nil {
		blockPrivateIP = *opts.BlockPrivateIP
	}

	maxRedirects := 10
	if opts.MaxRedirects != nil {
		maxRedirects = *opts.MaxRedirects
	}

	allowedSchemes := []string{"http", "https"}
	if len(opts.AllowedSchemes) > 0 {
		allowedSchemes = opts.AllowedSchemes
	}

	client := &Client{
		Client: &http.Client{
			Timeout: timeout,
		},
		allowedSchemes: allowedSchemes,
		blockPrivateIP: blockPrivateIP,
		maxRedirects:   maxRedirects,
	}

	// Every redirect target gets the same validation as the original URL
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= client.maxRedirects {
			return errors.Newf("stopped after %d redirects", client.maxRedirects)
		}
		if err := client.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	// Re-check resolved IPs at dial time. URL-level validation alone is
	// defeated by a hostname that resolves to a private address.
	if client.blockPrivateIP {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}

		client.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, _, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, errors.Wrap(err, "invalid address")
				}

				ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
				if err != nil {
					return nil, errors.Wrapf(err, "failed to resolve host %q", host)
				}

				for _, ip := range ips {
					if isPrivateIP(ip) {
						return nil, errors.Newf("private IP address blocked: %s", ip)
					}
				}

				return dialer.DialContext(ctx, network, addr)
			},
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return client
}

// validateURL rejects URLs before any request is made.
func (c *Client) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, allowedScheme := range c.allowedSchemes {
		if scheme == allowedScheme {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes)
	}

	// http://evil.com@localhost/ style credential confusion
	if strings.Contains(u.String(), "@") {
		return errors.New("URL contains @ character (potential request forgery)")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return errors.New("URL missing hostname")
	}

	if c.blockPrivateIP {
		if isLocalhost(hostname) {
			return errors.New("localhost access blocked")
		}

		// Literal private IPs are caught here; hostnames that resolve to
		// private space are caught by the dial-time check.
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return errors.Newf("private IP address blocked: %s", hostname)
		}
	}

	return nil
}

// ValidateURL validates a URL string before creating a request.
func (c *Client) ValidateURL(urlStr string) (*url.URL, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}

	if err := c.validateURL(u); err != nil {
		return nil, err
	}

	return u, nil
}

// Get fetches a URL after validating it.
func (c *Client) Get(urlStr string) (*http.Response, error) {
	if _, err := c.ValidateURL(urlStr); err != nil {
		return nil, err
	}
	return c.Client.Get(urlStr)
}

// Do executes a request after validating its URL.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.validateURL(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked")
	}
	return c.Client.Do(req)
}

// FetchReport downloads report content from a URL, capped at maxBytes.
// The returned filename comes from the Content-Disposition header when
// the server sends one, otherwise from the last URL path segment; it is
// what detection heuristics and ingestion records see as the filename.
func (c *Client) FetchReport(ctx context.Context, urlStr string, maxBytes int64) ([]byte, string, error) {
	u, err := c.ValidateURL(urlStr)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "building request")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "fetching %s", urlStr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Newf("fetching %s: unexpected status %s", urlStr, resp.Status)
	}

	// Read one byte past the cap so an oversized body is distinguishable
	// from one that is exactly at the limit
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading %s", urlStr)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", errors.Newf("report at %s exceeds %d byte limit", urlStr, maxBytes)
	}

	return data, reportFilename(resp, u), nil
}

// reportFilename picks the filename for fetched content.
func reportFilename(resp *http.Response, u *url.URL) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				// Strip any path components a hostile header might carry
				return path.Base(name)
			}
		}
	}

	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return "report"
}

// isPrivateIP checks if an IP is in private or special-use ranges.
func isPrivateIP(ip net.IP) bool {
	// RFC 1918 private networks plus loopback, link-local, and reserved
	privateBlocks := []net.IPNet{
		{IP: net.IPv4(10, 0, 0, 0), Mask: net.CIDRMask(8, 32)},     // 10.0.0.0/8
		{IP: net.IPv4(172, 16, 0, 0), Mask: net.CIDRMask(12, 32)},  // 172.16.0.0/12
		{IP: net.IPv4(192, 168, 0, 0), Mask: net.CIDRMask(16, 32)}, // 192.168.0.0/16
		{IP: net.IPv4(127, 0, 0, 0), Mask: net.CIDRMask(8, 32)},    // 127.0.0.0/8 (loopback)
		{IP: net.IPv4(169, 254, 0, 0), Mask: net.CIDRMask(16, 32)}, // 169.254.0.0/16 (link-local)
		{IP: net.IPv4(0, 0, 0, 0), Mask: net.CIDRMask(8, 32)},      // 0.0.0.0/8
		{IP: net.IPv4(224, 0, 0, 0), Mask: net.CIDRMask(4, 32)},    // 224.0.0.0/4 (multicast)
		{IP: net.IPv4(240, 0, 0, 0), Mask: net.CIDRMask(4, 32)},    // 240.0.0.0/4 (reserved)
	}

	if ip4 := ip.To4(); ip4 != nil {
		for _, block := range privateBlocks {
			if block.Contains(ip4) {
				return true
			}
		}
		return false
	}

	if len(ip) == net.IPv6len {
		// Loopback (::1)
		if ip.IsLoopback() {
			return true
		}

		// Link-local (fe80::/10)
		if ip.IsLinkLocalUnicast() {
			return true
		}

		// Multicast (ff00::/8)
		if ip.IsMulticast() {
			return true
		}

		// Unspecified (::)
		if ip.IsUnspecified() {
			return true
		}

		// Unique local addresses (fc00::/7), the IPv6 equivalent of RFC 1918
		if len(ip) >= 1 && (ip[0]&0xfe) == 0xfc {
			return true
		}

		// Site-local (fec0::/10), deprecated but still blocked
		if len(ip) >= 2 && ip[0] == 0xfe && (ip[1]&0xc0) == 0xc0 {
			return true
		}

		// IPv4-mapped addresses were already handled by the To4 branch
		if ip.To4() != nil {
			return false
		}

		// Documentation prefix (2001:db8::/32)
		if len(ip) >= 4 && ip[0] == 0x20 && ip[1] == 0x01 && ip[2] == 0x0d && ip[3] == 0xb8 {
			return true
		}

		return false
	}

	return false
}

// isLocalhost checks for localhost hostname variants.
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "localhost.localdomain" ||
		strings.HasSuffix(hostname, ".localhost")
}
