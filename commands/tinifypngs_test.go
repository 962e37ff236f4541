package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/DiverseStardewValley/dsv-scripts/config"
)

const testAPIKey = "valid-key"

// fakeTinify emulates the compression endpoint. count is the number of
// compressions used this month; compressions counts uploads seen by this
// server instance.
type fakeTinify struct {
	srv          *httptest.Server
	count        int
	compressions int
	failCompress bool
}

func newFakeTinify(t *testing.T, used int, failCompress bool) *fakeTinify {
	t.Helper()
	f := &fakeTinify{count: used, failCompress: failCompress}
	mux := http.NewServeMux()
	mux.HandleFunc("/shrink", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "api" || pass != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Unauthorized","message":"Credentials are invalid."}`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			w.Header().Set("Compression-Count", strconv.Itoa(f.count))
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"InputMissing","message":"Input file is empty."}`)
			return
		}
		if f.failCompress {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"InternalServerError","message":"Oops."}`)
			return
		}
		f.count++
		f.compressions++
		w.Header().Set("Compression-Count", strconv.Itoa(f.count))
		w.Header().Set("Location", f.srv.URL+"/output")
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/output", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTinify) config() *config.Config {
	return &config.Config{Tinify: config.TinifyConfig{Endpoint: f.srv.URL}}
}

func TestRunTinifyPNGs(t *testing.T) {
	t.Setenv("TINIFY_API_KEY", testAPIKey)
	f := newFakeTinify(t, 10, false)

	inDir, outDir := t.TempDir(), t.TempDir()
	pair := pairFor(t, inDir, outDir, "img.png", "a-reasonably-large-raw-png")
	inv, out := testInvocation(t, pair)
	inv.Config = f.config()

	res, err := runTinifyPNGs(inv)
	if err != nil {
		t.Fatalf("runTinifyPNGs() error = %v", err)
	}
	if res != (Result{Changed: 1}) {
		t.Errorf("runTinifyPNGs() = %+v, want {Changed:1}", res)
	}

	got, err := os.ReadFile(pair.Output)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "tiny" {
		t.Errorf("output = %q, want %q", got, "tiny")
	}
	if f.compressions != 1 {
		t.Errorf("server saw %d uploads, want 1", f.compressions)
	}

	for _, want := range []string{"Successfully connected to Tinify.", "Tinifying:", "Compression complete."} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}

func TestRunTinifyPNGs_ExistingOutputsSkipSetup(t *testing.T) {
	t.Setenv("TINIFY_API_KEY", "")

	inDir, outDir := t.TempDir(), t.TempDir()
	pair := pairFor(t, inDir, outDir, "img.png", "raw-png")
	if err := os.WriteFile(pair.Output, []byte("tiny"), 0644); err != nil {
		t.Fatal(err)
	}
	inv, out := testInvocation(t, pair)

	// No key is configured, so reaching setup would fail.
	res, err := runTinifyPNGs(inv)
	if err != nil {
		t.Fatalf("runTinifyPNGs() error = %v", err)
	}
	if res != (Result{}) {
		t.Errorf("runTinifyPNGs() = %+v, want {0 0}", res)
	}
	if !strings.Contains(out.String(), "(All files were already up-to-date.)") {
		t.Errorf("output missing up-to-date note: %q", out.String())
	}
}

func TestRunTinifyPNGs_MissingKey(t *testing.T) {
	t.Setenv("TINIFY_API_KEY", "")

	inDir, outDir := t.TempDir(), t.TempDir()
	pair := pairFor(t, inDir, outDir, "img.png", "raw-png")
	inv, _ := testInvocation(t, pair)

	_, err := runTinifyPNGs(inv)
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("runTinifyPNGs() error = %v, want *SetupError", err)
	}
	if !strings.Contains(setupErr.Reason, "TINIFY_API_KEY environment variable not found.") {
		t.Errorf("Reason = %q, want missing-key message", setupErr.Reason)
	}
	if !strings.Contains(setupErr.Reason, "https://tinypng.com/developers") {
		t.Errorf("Reason = %q, want the developer URL hint", setupErr.Reason)
	}
	if _, err := os.Stat(pair.Output); err == nil {
		t.Error("setup failure must not write any output file")
	}
}

func TestRunTinifyPNGs_MalformedEnvFile(t *testing.T) {
	t.Setenv("TINIFY_API_KEY", testAPIKey)

	// A .env file that exists but cannot be parsed must surface as a setup
	// failure, even when the environment already carries a usable key.
	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte("not a dotenv line\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(work); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	defer os.Chdir(wd)

	inDir, outDir := t.TempDir(), t.TempDir()
	pair := pairFor(t, inDir, outDir, "img.png", "raw-png")
	inv, _ := testInvocation(t, pair)

	_, err = runTinifyPNGs(inv)
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("runTinifyPNGs() error = %v, want *SetupError", err)
	}
	if !strings.Contains(setupErr.Reason, "Failed to load .env file") {
		t.Errorf("Reason = %q, want env-file load failure", setupErr.Reason)
	}
}

func TestRunTinifyPNGs_RejectedKey(t *testing.T) {
	t.Setenv("TINIFY_API_KEY", "wrong-key")
	f := newFakeTinify(t, 0, false)

	inDir, outDir := t.TempDir(), t.TempDir()
	pair := pairFor(t, inDir, outDir, "img.png", "raw-png")
	inv, _ := testInvocation(t, pair)
	inv.Config = f.config()

	_, err := runTinifyPNGs(inv)
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("runTinifyPNGs() error = %v, want *SetupError", err)
	}
	if !strings.Contains(setupErr.Reason, "Validation of Tinify API key failed.") {
		t.Errorf("Reason = %q, want validation-failed message", setupErr.Reason)
	}
}

func TestRunTinifyPNGs_NoCompressionsLeft(t *testing.T) {
	t.Setenv("TINIFY_API_KEY", testAPIKey)
	f := newFakeTinify(t, 500, false)

	inDir, outDir := t.TempDir(), t.TempDir()
	pair := pairFor(t, inDir, outDir, "img.png", "raw-png")
	inv, _ := testInvocation(t, pair)
	inv.Config = f.config()

	_, err := runTinifyPNGs(inv)
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("runTinifyPNGs() error = %v, want *SetupError", err)
	}
	if !strings.Contains(setupErr.Reason, "No more Tinify compressions remaining for this month.") {
		t.Errorf("Reason = %q, want budget message", setupErr.Reason)
	}
}

func TestRunTinifyPNGs_CopyPredicateSkipsAPI(t *testing.T) {
	t.Setenv("TINIFY_API_KEY", testAPIKey)
	f := newFakeTinify(t, 0, false)

	inDir, outDir := t.TempDir(), t.TempDir()
	content := "raw-png-that-should-stay-as-is"
	pair := pairFor(t, inDir, outDir, "img.png", content)
	inv, out := testInvocation(t, pair)
	inv.Config = f.config()
	inv.ShouldCopy = func(string) bool { return true }

	res, err := runTinifyPNGs(inv)
	if err != nil {
		t.Fatalf("runTinifyPNGs() error = %v", err)
	}
	if res != (Result{Changed: 1}) {
		t.Errorf("runTinifyPNGs() = %+v, want {Changed:1}", res)
	}

	got, err := os.ReadFile(pair.Output)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("output = %q, want verbatim copy", got)
	}
	if f.compressions != 0 {
		t.Errorf("server saw %d uploads, want 0", f.compressions)
	}
	if !strings.Contains(out.String(), ">>Copying:") {
		t.Errorf("output missing copy line: %q", out.String())
	}
}

func TestRunTinifyPNGs_APIErrorWarns(t *testing.T) {
	t.Setenv("TINIFY_API_KEY", testAPIKey)
	f := newFakeTinify(t, 0, true)

	inDir, outDir := t.TempDir(), t.TempDir()
	pair := pairFor(t, inDir, outDir, "img.png", "raw-png")
	inv, out := testInvocation(t, pair)
	inv.Config = f.config()

	res, err := runTinifyPNGs(inv)
	if err != nil {
		t.Fatalf("runTinifyPNGs() error = %v", err)
	}
	if res != (Result{Warnings: 1}) {
		t.Errorf("runTinifyPNGs() = %+v, want {Warnings:1}", res)
	}
	if _, err := os.Stat(pair.Output); err == nil {
		t.Error("failed compression must not write an output file")
	}
	if !strings.Contains(out.String(), "with 1 warning(s)") {
		t.Errorf("summary missing warning count: %q", out.String())
	}
}
