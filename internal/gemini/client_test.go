package gemini

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeKnownHosts struct {
	mu    sync.Mutex
	hosts map[string]HostKey
}

func newFakeKnownHosts() *fakeKnownHosts {
	return &fakeKnownHosts{hosts: make(map[string]HostKey)}
}

func (f *fakeKnownHosts) KnownHost(_ context.Context, host string) (HostKey, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.hosts[host]
	return key, ok, nil
}

func (f *fakeKnownHosts) TrustHost(_ context.Context, host string, key HostKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts[host] = key
	return nil
}

type testServer struct {
	addr     string
	mu       sync.Mutex
	requests []string
}

func (s *testServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func startServer(t *testing.T, cert tls.Certificate, response string) *testServer {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	srv := &testServer{addr: ln.Addr().String()}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
				line, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				srv.mu.Lock()
				srv.requests = append(srv.requests, line)
				srv.mu.Unlock()
				_, _ = io.WriteString(conn, response)
			}(conn)
		}
	}()
	return srv
}

func fetchCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFetch_ReadsHeaderAndBody(t *testing.T) {
	srv := startServer(t, selfSignedCert(t), "20 text/gemini; lang=en\r\n# Hello\n=> /next Next\n")
	client, err := NewClient(Options{KnownHosts: newFakeKnownHosts()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	resp, err := client.Fetch(fetchCtx(t), "gemini://"+srv.addr+"/docs")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	defer resp.Close()

	if resp.Status != StatusSuccess || !resp.IsSuccess() {
		t.Fatalf("unexpected status: %d", resp.Status)
	}
	if resp.MediaType() != "text/gemini" {
		t.Fatalf("unexpected media type: %q", resp.MediaType())
	}
	lines, err := Parse(resp.Body)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(lines) != 2 || lines[1] != LinkLine("/next", "Next") {
		t.Fatalf("unexpected lines: %+v", lines)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0] != "gemini://"+srv.addr+"/docs\r\n" {
		t.Fatalf("unexpected request lines: %q", reqs)
	}
}

func TestFetch_AddsRootPath(t *testing.T) {
	srv := startServer(t, selfSignedCert(t), "20 \r\n")
	client, _ := NewClient(Options{})

	resp, err := client.Fetch(fetchCtx(t), "gemini://"+srv.addr)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	resp.Close()

	if reqs := srv.Requests(); len(reqs) != 1 || reqs[0] != "gemini://"+srv.addr+"/\r\n" {
		t.Fatalf("unexpected request lines: %q", reqs)
	}
}

func TestFetch_PinsCertificateOnFirstUse(t *testing.T) {
	cert := selfSignedCert(t)
	srv := startServer(t, cert, "20 text/gemini\r\nok\n")
	hosts := newFakeKnownHosts()
	client, _ := NewClient(Options{KnownHosts: hosts})

	resp, err := client.Fetch(fetchCtx(t), "gemini://"+srv.addr+"/")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	resp.Close()

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	key, ok, _ := hosts.KnownHost(context.Background(), "127.0.0.1")
	if !ok {
		t.Fatal("expected host to be pinned")
	}
	if key.Fingerprint != Fingerprint(leaf) {
		t.Fatalf("unexpected pinned fingerprint: %s", key.Fingerprint)
	}
}

func TestFetch_RejectsChangedCertificate(t *testing.T) {
	srv := startServer(t, selfSignedCert(t), "20 text/gemini\r\nok\n")
	hosts := newFakeKnownHosts()
	_ = hosts.TrustHost(context.Background(), "127.0.0.1", HostKey{
		Fingerprint: "deadbeef",
		Expires:     time.Now().Add(time.Hour),
	})
	client, _ := NewClient(Options{KnownHosts: hosts})

	_, err := client.Fetch(fetchCtx(t), "gemini://"+srv.addr+"/")
	var mismatch *CertificateMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CertificateMismatchError, got %v", err)
	}
	if mismatch.Want != "deadbeef" {
		t.Fatalf("unexpected mismatch: %+v", mismatch)
	}
}

func TestFetch_ReplacesExpiredPin(t *testing.T) {
	srv := startServer(t, selfSignedCert(t), "20 text/gemini\r\nok\n")
	hosts := newFakeKnownHosts()
	_ = hosts.TrustHost(context.Background(), "127.0.0.1", HostKey{
		Fingerprint: "deadbeef",
		Expires:     time.Now().Add(-time.Hour),
	})
	client, _ := NewClient(Options{KnownHosts: hosts})

	resp, err := client.Fetch(fetchCtx(t), "gemini://"+srv.addr+"/")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	resp.Close()

	key, _, _ := hosts.KnownHost(context.Background(), "127.0.0.1")
	if key.Fingerprint == "deadbeef" {
		t.Fatal("expected expired pin to be replaced")
	}
}

func TestFetch_MalformedHeader(t *testing.T) {
	srv := startServer(t, selfSignedCert(t), "hello world\r\n")
	client, _ := NewClient(Options{})

	_, err := client.Fetch(fetchCtx(t), "gemini://"+srv.addr+"/")
	if !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestFetch_OversizedBodyFails(t *testing.T) {
	var doc strings.Builder
	for i := 0; i < 100; i++ {
		doc.WriteString("line\n")
	}
	doc.WriteString("=> /last Last\n")
	srv := startServer(t, selfSignedCert(t), "20 text/gemini\r\n"+doc.String())
	client, err := NewClient(Options{MaxBodyBytes: 64})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	resp, err := client.Fetch(fetchCtx(t), "gemini://"+srv.addr+"/")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	defer resp.Close()

	lines, err := Parse(resp.Body)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got lines=%d err=%v", len(lines), err)
	}
}

func TestFetch_BodyAtLimitIsComplete(t *testing.T) {
	srv := startServer(t, selfSignedCert(t), "20 text/gemini\r\n# Hi\n")
	client, err := NewClient(Options{MaxBodyBytes: int64(len("# Hi\n"))})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	resp, err := client.Fetch(fetchCtx(t), "gemini://"+srv.addr+"/")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	defer resp.Close()

	lines, err := Parse(resp.Body)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(lines) != 1 || lines[0] != HeadingLine(1, "Hi") {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	client, _ := NewClient(Options{})

	_, err := client.Fetch(context.Background(), "https://example.com/")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestFetch_URLTooLong(t *testing.T) {
	client, _ := NewClient(Options{})

	_, err := client.Fetch(context.Background(), "gemini://example.org/"+strings.Repeat("a", 1100))
	if !errors.Is(err, ErrURLTooLong) {
		t.Fatalf("expected ErrURLTooLong, got %v", err)
	}
}

func TestReadHeader(t *testing.T) {
	tests := []struct {
		in     string
		status int
		meta   string
		ok     bool
	}{
		{"20 text/gemini\r\n", 20, "text/gemini", true},
		{"31 gemini://x/\r\n", 31, "gemini://x/", true},
		{"20\r\n", 20, "", true},
		{"2\r\n", 0, "", false},
		{"ab meta\r\n", 0, "", false},
		{"20meta\r\n", 0, "", false},
		{"20 " + strings.Repeat("m", 1025) + "\r\n", 0, "", false},
	}
	for _, tt := range tests {
		status, meta, err := readHeader(bufio.NewReader(strings.NewReader(tt.in)))
		if tt.ok && err != nil {
			t.Fatalf("readHeader(%q) returned error: %v", tt.in, err)
		}
		if !tt.ok {
			if err == nil {
				t.Fatalf("readHeader(%q) expected error", tt.in)
			}
			continue
		}
		if status != tt.status || meta != tt.meta {
			t.Fatalf("readHeader(%q) = %d %q", tt.in, status, meta)
		}
	}
}
