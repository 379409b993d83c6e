package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/connector/connector"
	"github.com/kbukum/connector/errors"
	"github.com/kbukum/connector/httpclient"
	"github.com/kbukum/connector/logger"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readReports(t *testing.T, out *bytes.Buffer) []callReport {
	t.Helper()
	var reports []callReport
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var r callReport
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		reports = append(reports, r)
	}
	return reports
}

func TestFetch_ReportsInArgumentOrder(t *testing.T) {
	upstream := newUpstream(t)
	client, err := httpclient.New(httpclient.Config{BaseURL: upstream.URL})
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	conn := connector.New(connector.WithLogger(logger.Nop()))
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	var out bytes.Buffer
	targets := []string{"/a", "/missing", "/b"}
	failed, err := fetch(context.Background(), conn, httpTargets(client), connector.NewEndpointConfig("test"), targets, true, &out)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	reports := readReports(t, &out)
	if len(reports) != 3 {
		t.Fatalf("got %d reports", len(reports))
	}
	for i, want := range targets {
		if reports[i].Target != want {
			t.Errorf("reports[%d].Target = %q, want %q", i, reports[i].Target, want)
		}
	}
	if !reports[0].OK || reports[0].Body != `{"path":"/a"}` {
		t.Errorf("reports[0] = %+v", reports[0])
	}
	if reports[1].OK || reports[1].Code != string(errors.ErrCodeCommandFailed) {
		t.Errorf("reports[1] = %+v", reports[1])
	}
}

func TestFetch_ShellTargets(t *testing.T) {
	conn := connector.New(connector.WithLogger(logger.Nop()))
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	var out bytes.Buffer
	failed, err := fetch(context.Background(), conn, shellTargets, connector.NewEndpointConfig("sh"),
		[]string{"printf hi", "exit 4"}, true, &out)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	reports := readReports(t, &out)
	if len(reports) != 2 || reports[0].Body != "hi" || reports[1].OK {
		t.Errorf("reports = %+v", reports)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Endpoints: []connector.EndpointConfig{{Name: "a"}, {Name: "a"}}}
	cfg.ApplyDefaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v, want duplicate name error", err)
	}

	cfg.Endpoints[1].Name = "b"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if cfg.Name != serviceName || cfg.Logging.Output != "stderr" {
		t.Errorf("defaults: name=%q output=%q", cfg.Name, cfg.Logging.Output)
	}
}

func TestConfig_Endpoint(t *testing.T) {
	cfg := Config{Endpoints: []connector.EndpointConfig{{Name: "users", Retries: 7}}}
	cfg.ApplyDefaults()

	if got := cfg.Endpoint("users"); got.Retries != 7 {
		t.Errorf("Retries = %d, want 7", got.Retries)
	}
	if got := cfg.Endpoint("other"); got.Name != "other" || got.ConcurrencyLimit != connector.DefaultConcurrencyLimit {
		t.Errorf("fallback = %+v", got)
	}
}

func TestRealMain_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := realMain([]string{"--version"}, &out, &errOut); code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Error("expected version output")
	}
}

func TestRealMain_NoTargets(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := realMain(nil, &out, &errOut); code != exitError {
		t.Fatalf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(errOut.String(), "Usage") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestRealMain_EndToEnd(t *testing.T) {
	upstream := newUpstream(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	yml := fmt.Sprintf(`name: connector-test
environment: development
logging:
  level: error
  output: stderr
http:
  base_url: %s
endpoints:
  - name: default
    retries: 0
    timeout: 2s
`, upstream.URL)
	if err := os.WriteFile(cfgPath, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	code := realMain([]string{"-c", cfgPath, "/one", "/missing"}, &out, &errOut)
	if code != exitFailed {
		t.Fatalf("exit = %d, want %d; stderr=%s", code, exitFailed, errOut.String())
	}
	reports := readReports(t, &out)
	if len(reports) != 2 || !reports[0].OK || reports[1].OK {
		t.Errorf("reports = %+v", reports)
	}
}
