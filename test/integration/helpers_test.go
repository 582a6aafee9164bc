package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lemonberrylabs/exprcalc/pkg/api"
	grpcapi "github.com/lemonberrylabs/exprcalc/pkg/api/grpc"
	"github.com/lemonberrylabs/exprcalc/pkg/calc"
	"github.com/lemonberrylabs/exprcalc/pkg/store"
	"github.com/lemonberrylabs/exprcalc/web"
)

var (
	// testServer is the base URL of the HTTP API.
	testServer string
	// grpcClient talks to the gRPC API of the same process.
	grpcClient *grpcapi.Client
)

// TestMain starts both servers over one SQLite history, the way
// "exprcalc serve --history-db" does.
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	dir, err := os.MkdirTemp("", "exprcalc-integration")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	history, err := store.OpenSQLite(filepath.Join(dir, "history.db"))
	if err != nil {
		log.Fatalf("open history: %v", err)
	}
	defer history.Close()

	svc := calc.New(history)

	httpServer := api.New(svc)
	web.New(svc).Register(httpServer.App())
	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("http listen: %v", err)
	}
	go httpServer.Serve(httpLis)
	defer httpServer.Shutdown()
	testServer = "http://" + httpLis.Addr().String()

	grpcServer := grpcapi.New(svc)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}
	go grpcServer.ServeListener(grpcLis)
	defer grpcServer.GracefulStop()

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("grpc dial: %v", err)
	}
	defer conn.Close()
	grpcClient = grpcapi.NewClient(conn)

	if err := waitForHealthy(5 * time.Second); err != nil {
		log.Fatalf("server not healthy: %v", err)
	}
	return m.Run()
}

func waitForHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		resp, err := http.Get(testServer + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s: %v", timeout, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// apiURL builds a full URL for the given API path.
func apiURL(path string) string {
	return strings.TrimRight(testServer, "/") + "/v1/" + path
}

type evaluationResult struct {
	StatusCode int
	Body       map[string]interface{}
}

// evaluate posts an expression to the HTTP API.
func evaluate(t *testing.T, expression, resultType string) evaluationResult {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"expression": expression,
		"resultType": resultType,
	})
	resp, err := http.Post(apiURL("evaluations"), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	return decode(t, resp)
}

func getJSON(t *testing.T, path string) evaluationResult {
	t.Helper()
	resp, err := http.Get(apiURL(path))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	return decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) evaluationResult {
	t.Helper()
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", raw, err)
	}
	return evaluationResult{StatusCode: resp.StatusCode, Body: out}
}

func assertResults(t *testing.T, er evaluationResult, want ...string) {
	t.Helper()
	if er.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", er.StatusCode, er.Body)
	}
	got, _ := er.Body["results"].([]interface{})
	if len(got) != len(want) {
		t.Fatalf("results = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("results[%d] = %v, want %q", i, got[i], want[i])
		}
	}
}

func assertErrorHasTag(t *testing.T, er evaluationResult, tag string) {
	t.Helper()
	if er.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", er.StatusCode, er.Body)
	}
	errObj, _ := er.Body["error"].(map[string]interface{})
	tags, _ := errObj["tags"].([]interface{})
	for _, tg := range tags {
		if tg == tag {
			return
		}
	}
	t.Errorf("expected tag %q in %v", tag, errObj)
}
