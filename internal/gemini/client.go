package gemini

import (
	"bufio"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/net/proxy"
)

const (
	DefaultPort         = "1965"
	DefaultMaxBodyBytes = 4 << 20

	maxURLBytes  = 1024
	maxMetaBytes = 1024
)

var (
	ErrUnsupportedScheme  = errors.New("unsupported scheme")
	ErrMalformedHeader    = errors.New("malformed response header")
	ErrURLTooLong         = errors.New("request URL exceeds 1024 bytes")
	ErrCertificateExpired = errors.New("server certificate expired")
	ErrBodyTooLarge       = errors.New("response body exceeds size limit")
)

// HostKey is a pinned server certificate fingerprint.
type HostKey struct {
	Fingerprint string
	Expires     time.Time
}

// KnownHosts stores trust-on-first-use certificate pins.
type KnownHosts interface {
	KnownHost(ctx context.Context, host string) (HostKey, bool, error)
	TrustHost(ctx context.Context, host string, key HostKey) error
}

// CertificateMismatchError is returned when a host presents a certificate
// other than the one pinned on first use.
type CertificateMismatchError struct {
	Host string
	Want string
	Got  string
}

func (e *CertificateMismatchError) Error() string {
	return fmt.Sprintf("certificate for %s changed: pinned %s, got %s", e.Host, short(e.Want), short(e.Got))
}

func short(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}

type Options struct {
	KnownHosts   KnownHosts
	SOCKSProxy   string
	DialTimeout  time.Duration
	MaxBodyBytes int64
}

type Client struct {
	hosts        KnownHosts
	dialer       proxy.ContextDialer
	maxBodyBytes int64
	now          func() time.Time
}

func NewClient(opts Options) (*Client, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	direct := &net.Dialer{Timeout: opts.DialTimeout}
	var dialer proxy.ContextDialer = direct
	if opts.SOCKSProxy != "" {
		d, err := proxy.SOCKS5("tcp", opts.SOCKSProxy, nil, direct)
		if err != nil {
			return nil, fmt.Errorf("configure socks proxy: %w", err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks proxy dialer does not support contexts")
		}
		dialer = cd
	}

	return &Client{
		hosts:        opts.KnownHosts,
		dialer:       dialer,
		maxBodyBytes: opts.MaxBodyBytes,
		now:          time.Now,
	}, nil
}

// Fetch sends a request for rawURL and returns the response header with an
// open body. Callers must close the response.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "gemini" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("url has no host: %s", rawURL)
	}
	asciiHost := host
	if net.ParseIP(host) == nil {
		asciiHost, err = idna.Lookup.ToASCII(host)
		if err != nil {
			return nil, fmt.Errorf("convert host %q: %w", host, err)
		}
	}
	port := u.Port()
	if port == "" {
		port = DefaultPort
	}

	if asciiHost != host {
		if p := u.Port(); p != "" {
			u.Host = net.JoinHostPort(asciiHost, p)
		} else {
			u.Host = asciiHost
		}
	}
	if u.Path == "" {
		u.Path = "/"
	}
	requestLine := u.String()
	if len(requestLine) > maxURLBytes {
		return nil, ErrURLTooLong
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", net.JoinHostPort(asciiHost, port))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", asciiHost, err)
	}

	tlsConn := tls.Client(conn, c.tlsConfig(ctx, asciiHost))
	if deadline, ok := ctx.Deadline(); ok {
		_ = tlsConn.SetDeadline(deadline)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", asciiHost, err)
	}

	if _, err := io.WriteString(tlsConn, requestLine+"\r\n"); err != nil {
		tlsConn.Close()
		return nil, fmt.Errorf("send request: %w", err)
	}

	br := bufio.NewReader(tlsConn)
	status, meta, err := readHeader(br)
	if err != nil {
		tlsConn.Close()
		return nil, err
	}

	return &Response{
		Status: status,
		Meta:   meta,
		Body: &body{
			Reader: &cappedReader{r: io.LimitReader(br, c.maxBodyBytes+1), remaining: c.maxBodyBytes},
			conn:   tlsConn,
		},
	}, nil
}

func (c *Client) tlsConfig(ctx context.Context, host string) *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: host,
		// Gemini servers are mostly self-signed; trust is pinned in VerifyConnection.
		InsecureSkipVerify: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			return c.verify(ctx, host, cs)
		},
	}
}

func (c *Client) verify(ctx context.Context, host string, cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return fmt.Errorf("%s presented no certificate", host)
	}
	cert := cs.PeerCertificates[0]
	now := c.now()
	if now.After(cert.NotAfter) {
		return fmt.Errorf("%w: %s (not after %s)", ErrCertificateExpired, host, cert.NotAfter.Format(time.RFC3339))
	}
	if c.hosts == nil {
		return nil
	}

	got := Fingerprint(cert)
	known, found, err := c.hosts.KnownHost(ctx, host)
	if err != nil {
		return fmt.Errorf("look up known host %s: %w", host, err)
	}
	if found && now.Before(known.Expires) {
		if known.Fingerprint != got {
			return &CertificateMismatchError{Host: host, Want: known.Fingerprint, Got: got}
		}
		return nil
	}
	if err := c.hosts.TrustHost(ctx, host, HostKey{Fingerprint: got, Expires: cert.NotAfter}); err != nil {
		return fmt.Errorf("trust host %s: %w", host, err)
	}
	return nil
}

// Fingerprint returns the hex SHA-256 of a certificate's DER bytes.
func Fingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

func readHeader(br *bufio.Reader) (int, string, error) {
	line, err := br.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return 0, "", fmt.Errorf("%w: header too long", ErrMalformedHeader)
		}
		return 0, "", fmt.Errorf("read response header: %w", err)
	}
	header := strings.TrimRight(string(line), "\r\n")
	if len(header) < 2 {
		return 0, "", fmt.Errorf("%w: %q", ErrMalformedHeader, header)
	}
	status, err := strconv.Atoi(header[:2])
	if err != nil || status < 10 {
		return 0, "", fmt.Errorf("%w: bad status %q", ErrMalformedHeader, header[:2])
	}
	var meta string
	if len(header) > 2 {
		if header[2] != ' ' {
			return 0, "", fmt.Errorf("%w: %q", ErrMalformedHeader, header)
		}
		meta = header[3:]
	}
	if len(meta) > maxMetaBytes {
		return 0, "", fmt.Errorf("%w: meta exceeds %d bytes", ErrMalformedHeader, maxMetaBytes)
	}
	return status, meta, nil
}

// cappedReader fails with ErrBodyTooLarge once more than remaining bytes arrive.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if int64(n) > c.remaining {
		n = int(c.remaining)
		c.remaining = 0
		return n, ErrBodyTooLarge
	}
	c.remaining -= int64(n)
	return n, err
}

type body struct {
	io.Reader
	conn net.Conn
}

func (b *body) Close() error {
	return b.conn.Close()
}
