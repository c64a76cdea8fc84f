//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docsmith-ai/docsmith/internal/api/handlers"
	"github.com/docsmith-ai/docsmith/internal/chat"
	"github.com/docsmith-ai/docsmith/internal/fetch"
	"github.com/docsmith-ai/docsmith/internal/ingest"
	"github.com/docsmith-ai/docsmith/internal/jobs"
	"github.com/docsmith-ai/docsmith/internal/llm"
	"github.com/docsmith-ai/docsmith/internal/repository"
	"github.com/docsmith-ai/docsmith/internal/server"
	"github.com/docsmith-ai/docsmith/internal/service"
	"github.com/docsmith-ai/docsmith/internal/storage"
	"github.com/docsmith-ai/docsmith/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDimensions = 1536

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	Gitingest    *gitingestStub
	Worker       *jobs.Worker
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers, upstream
// stubs, and the HTTP server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../internal/database/migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "docsmith-dumps",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	gitingest := newGitingestStub()

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser, worker := startServer(t, pool, s3Client, gitingest, port)

	env := &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		Gitingest:    gitingest,
		Worker:       worker,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}

	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Worker != nil {
		e.Worker.Stop()
	}
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Gitingest != nil {
		e.Gitingest.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the docsmith and docsmithd binaries
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "docsmith-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "docsmithd"), "./cmd/docsmithd")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build docsmithd: %v\n%s", err, out)
	}

	cmd = exec.Command("go", "build", "-o", filepath.Join(tmpDir, "docsmith"), "./cmd/docsmith")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build docsmith: %v\n%s", err, out)
	}
}

// RunDocsmith runs the docsmith CLI command against the test server
func (e *E2ETestEnv) RunDocsmith(workDir string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "docsmith"), args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("DOCSMITH_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// gitingestStub mimics the gitingest flow: the ingest form responds with a
// page carrying a download link, and the download endpoint serves the dump
// registered for the requested repository.
type gitingestStub struct {
	server *httptest.Server
	dumps  map[string]string
}

func newGitingestStub() *gitingestStub {
	stub := &gitingestStub{dumps: make(map[string]string)}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		repo := r.FormValue("input_text")
		if _, ok := stub.dumps[repo]; !ok {
			http.Error(w, "unknown repository", http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `<html><body><a href="/download/%s">Download</a></body></html>`, repo)
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		repo := strings.TrimPrefix(r.URL.Path, "/download/")
		dump, ok := stub.dumps[repo]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, dump)
	})

	stub.server = httptest.NewServer(mux)
	return stub
}

// Register makes a dump available for the given repository identifier.
func (s *gitingestStub) Register(repository, dump string) {
	s.dumps[repository] = dump
}

func (s *gitingestStub) URL() string {
	return s.server.URL
}

func (s *gitingestStub) Close() {
	s.server.Close()
}

// fakeEmbedder produces deterministic vectors so that identical text always
// lands at the same point and similar queries retrieve it.
type fakeEmbedder struct{}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, embeddingDimensions)
	for i := range vec {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], seed+uint64(i))
		g := fnv.New64a()
		g.Write(buf[:])
		vec[i] = float32(g.Sum64()%1000) / 1000.0
	}

	// Normalize so cosine distance behaves
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// fakeCompletion echoes the question and reports how much context it saw.
type fakeCompletion struct{}

func (f *fakeCompletion) Complete(ctx context.Context, systemPrompt, userMessage string, opts llm.Options) (string, error) {
	contextSize := strings.Count(systemPrompt, "documentURL")
	return fmt.Sprintf("answer based on %d context entries", contextSize), nil
}

// wordTokenizer avoids pulling tokenizer vocabularies in tests.
type wordTokenizer struct {
	words []string
}

func (t *wordTokenizer) Encode(text string) []int {
	t.words = strings.Fields(text)
	tokens := make([]int, len(t.words))
	for i := range tokens {
		tokens[i] = i
	}
	return tokens
}

func (t *wordTokenizer) Decode(tokens []int) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok >= 0 && tok < len(t.words) {
			parts = append(parts, t.words[tok])
		}
	}
	return strings.Join(parts, " ")
}

// startServer wires the full stack against the containers and stubs.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, gitingest *gitingestStub, port int) (string, func(), *jobs.Worker) {
	documentRepo := repository.NewDocumentRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)

	chunker, err := ingest.NewChunker(&wordTokenizer{}, ingest.ChunkConfig{Size: 64, Overlap: 8})
	if err != nil {
		t.Fatalf("failed to create chunker: %v", err)
	}

	fetcher := fetch.NewGitingestFetcher(gitingest.URL())
	embedder := &fakeEmbedder{}
	completion := &fakeCompletion{}

	ingestSvc := service.NewIngestService(fetcher, s3Client, chunker, embedder, documentRepo, 10)
	responderSvc := service.NewResponderService(embedder, documentRepo, completion, 5, llm.Options{})

	ingestProcessor := jobs.NewIngestWorker(ingestJobRepo, ingestSvc)
	worker := jobs.NewWorker(ingestProcessor, 500*time.Millisecond)
	go worker.Start(context.Background())

	chatHub := chat.NewHub()
	chatHandler := chat.NewHandler(chatHub, responderSvc)

	router := server.NewRouter(server.RouterConfig{
		IngestHandler: handlers.NewIngestHandler(ingestSvc, ingestJobRepo),
		AskHandler:    handlers.NewAskHandler(responderSvc),
		CollectionHandler: handlers.NewCollectionHandler(documentRepo, func() (bool, error) {
			return false, nil
		}),
		EmbeddingHandler: handlers.NewEmbeddingHandler(embedder),
		ChatHandler:      chatHandler,
	})

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, worker
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
