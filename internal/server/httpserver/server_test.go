package httpserver

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/objhost-go/internal/core/catalog"
	"github.com/yndnr/objhost-go/internal/core/lifecycle"
	"github.com/yndnr/objhost-go/internal/core/service"
	"github.com/yndnr/objhost-go/internal/registry"
	"github.com/yndnr/objhost-go/internal/telemetry/metric"
)

func TestServer_ListenAndShutdown(t *testing.T) {
	s := New("127.0.0.1:0", okHandler())
	require.NoError(t, s.Listen())
	assert.NotEqual(t, "127.0.0.1:0", s.Addr())

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ListenAndServe()
	}()

	resp, err := http.Get("http://" + s.Addr() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for ListenAndServe to return")
	}
}

func TestServer_ListenBusyPort(t *testing.T) {
	first := New("127.0.0.1:0", okHandler())
	require.NoError(t, first.Listen())
	defer first.Shutdown(context.Background())

	second := New(first.Addr(), okHandler())
	assert.Error(t, second.Listen())
}

// selfSigned returns a certificate for 127.0.0.1 and a pool trusting it.
func selfSigned(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "objhost-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

func TestServer_TLS(t *testing.T) {
	cert, pool := selfSigned(t)

	s := New("127.0.0.1:0", okHandler())
	s.EnableTLS(&tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12})
	require.NoError(t, s.Listen())

	errChan := make(chan error, 1)
	go func() { errChan <- s.ListenAndServe() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		<-errChan
	})

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}}}
	resp, err := client.Get("https://" + s.Addr() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, resp.TLS)

	// Plain HTTP is not served on a TLS listener.
	plain, err := http.Get("http://" + s.Addr() + "/")
	if err == nil {
		plain.Body.Close()
		assert.Equal(t, http.StatusBadRequest, plain.StatusCode)
	}
}

type stack struct {
	srv    *lifecycle.Server
	svc    *service.ObjectService
	ts     *httptest.Server
	runErr chan error
}

func newStack(t *testing.T) *stack {
	t.Helper()

	reg, err := registry.Open(registry.Config{InMemory: true}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	metrics := metric.NewRegistry()
	classes := catalog.Builtin()

	st := &stack{runErr: make(chan error, 1)}
	st.srv, err = lifecycle.New(lifecycle.Config{
		Gateway:         reg,
		Classes:         classes,
		ReclaimInterval: time.Hour,
		GracePeriod:     time.Millisecond,
		Logger:          discardLogger(),
		Metrics:         metrics.Lifecycle,
	})
	require.NoError(t, err)

	st.svc = service.NewObjectService(service.ObjectServiceConfig{
		Host:    st.srv,
		Classes: classes,
		Logger:  discardLogger(),
		Metrics: metrics.Objects,
	})

	st.ts = httptest.NewServer(NewRouter(&RouterConfig{
		Objects:        st.svc,
		Lifecycle:      st.srv,
		Registry:       reg,
		Metrics:        metrics,
		Logger:         discardLogger(),
		AdminAllowList: []string{"127.0.0.1/32"},
		AdminToken:     "admin-secret",
	}))
	t.Cleanup(st.ts.Close)

	go func() { st.runErr <- st.srv.Run(context.Background()) }()
	require.Eventually(t, st.srv.Ready, 2*time.Second, time.Millisecond)
	t.Cleanup(func() {
		if st.srv.RequestForcedStop() {
			<-st.runErr
		}
	})
	return st
}

func (st *stack) do(t *testing.T, method, path, body string, header ...string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, st.ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestRouter_LastReleaseStopsServer(t *testing.T) {
	st := newStack(t)

	resp, body := st.do(t, http.MethodGet, "/classes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["data"].(map[string]any)["items"].([]any)
	assert.Len(t, items, len(catalog.Builtin()))

	resp, body = st.do(t, http.MethodPost, "/objects", `{"class_id":"objhost.Store","owner":"test"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["data"].(map[string]any)["id"].(string)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
	assert.Equal(t, int64(1), st.srv.ActiveCount())

	resp, _ = st.do(t, http.MethodDelete, "/objects/"+id, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	select {
	case err := <-st.runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after the last object was released")
	}
	assert.Equal(t, lifecycle.ReasonLastHandle, st.srv.Status().LastStopReason)

	resp, _ = st.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, body = st.do(t, http.MethodPost, "/objects", `{"class_id":"objhost.Store"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "OH-SYS-5030", body["code"])
}

func TestRouter_AdminShutdownRequiresToken(t *testing.T) {
	st := newStack(t)

	resp, _ := st.do(t, http.MethodPost, "/admin/shutdown", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.True(t, st.srv.Ready())

	resp, _ = st.do(t, http.MethodPost, "/admin/shutdown", "", "Authorization", "Bearer admin-secret")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case err := <-st.runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after admin shutdown")
	}
	assert.Equal(t, lifecycle.ReasonForced, st.srv.Status().LastStopReason)
}

func TestRouter_Metrics(t *testing.T) {
	st := newStack(t)

	st.do(t, http.MethodGet, "/health", "")
	resp, err := http.Get(st.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "objhost_http_requests_total")
}
