//go:build e2e

package e2e

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDump = `================================================
File: docs/overview.md
================================================
The pipeline service ingests repository documentation, splits it into
token bounded chunks, embeds each chunk, and stores the vectors for
similarity retrieval at question time.

================================================
File: docs/configuration.md
================================================
Configuration is read from environment variables. The database URL is
required; the embedding model, the chunk size, and the retrieval depth
all have defaults that work for most deployments.

================================================
File: LICENSE
================================================
short
`

type ingestResult struct {
	Repository     string `json:"repository"`
	DocumentURL    string `json:"document_url"`
	FilesSegmented int    `json:"files_segmented"`
	FilesKept      int    `json:"files_kept"`
	ChunksStored   int    `json:"chunks_stored"`
}

type ingestJob struct {
	ID           string `json:"id"`
	Repository   string `json:"repository"`
	Status       string `json:"status"`
	ChunksStored int32  `json:"chunks_stored"`
	Error        string `json:"error,omitempty"`
}

func TestE2E_IngestAndAsk(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.Gitingest.Register("acme/handbook", sampleDump)

	// Synchronous ingestion
	resp, err := env.Post("/ingest", map[string]string{"repository": "acme/handbook"})
	require.NoError(t, err)

	var result ingestResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "acme/handbook", result.Repository)
	assert.Equal(t, "https://github.com/acme/handbook", result.DocumentURL)
	assert.Equal(t, 3, result.FilesSegmented)
	assert.Equal(t, 2, result.FilesKept, "the LICENSE stub should be filtered out")
	assert.Greater(t, result.ChunksStored, 0)

	// The raw dump was archived
	archived, err := env.S3Client.GetDump(env.Ctx, "acme/handbook")
	require.NoError(t, err)
	assert.Equal(t, sampleDump, archived)

	// Stored chunks are visible through the collection API
	countResp, err := env.Get("/collection/count")
	require.NoError(t, err)
	var countData struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(countResp.Data, &countData))
	assert.Equal(t, int64(result.ChunksStored), countData.Count)

	itemsResp, err := env.Get("/collection/items?source=acme%2Fhandbook")
	require.NoError(t, err)
	var items []struct {
		ID             string `json:"id"`
		DocumentSource string `json:"document_source"`
		DocumentURL    string `json:"document_url"`
	}
	require.NoError(t, json.Unmarshal(itemsResp.Data, &items))
	require.Len(t, items, result.ChunksStored)
	for _, item := range items {
		assert.Equal(t, "acme/handbook", item.DocumentSource)
		assert.Equal(t, "https://github.com/acme/handbook", item.DocumentURL)
	}

	// Asking retrieves context and produces an answer
	askResp, err := env.Post("/ask", map[string]string{"message": "how is the service configured?"})
	require.NoError(t, err)
	var askData struct {
		Answer string `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(askResp.Data, &askData))
	assert.Contains(t, askData.Answer, "context entries")
	assert.NotContains(t, askData.Answer, "0 context entries")

	// Deleting an item shrinks the collection
	_, err = env.Delete("/collection/items/" + items[0].ID)
	require.NoError(t, err)

	countResp, err = env.Get("/collection/count")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(countResp.Data, &countData))
	assert.Equal(t, int64(result.ChunksStored-1), countData.Count)
}

func TestE2E_IngestUnknownRepository(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	_, err := env.Post("/ingest", map[string]string{"repository": "nobody/missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestE2E_AsyncIngestJob(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.Gitingest.Register("acme/handbook", sampleDump)

	resp, err := env.Post("/ingest/jobs", map[string]string{"repository": "acme/handbook"})
	require.NoError(t, err)

	var job ingestJob
	require.NoError(t, json.Unmarshal(resp.Data, &job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, "pending", job.Status)

	// The background worker should pick the job up and finish it
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		jobResp, err := env.Get("/ingest/jobs/" + job.ID)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(jobResp.Data, &job))
		if job.Status == "completed" || job.Status == "failed" {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	require.Equal(t, "completed", job.Status, "job error: %s", job.Error)
	assert.Greater(t, job.ChunksStored, int32(0))
}

func TestE2E_Chat(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.Gitingest.Register("acme/handbook", sampleDump)
	_, err := env.Post("/ingest", map[string]string{"repository": "acme/handbook"})
	require.NoError(t, err)

	wsURL := strings.Replace(env.ServerURL, "http://", "ws://", 1) + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Two sequential turns on one connection
	for _, question := range []string{"what does the pipeline do?", "which settings are required?"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(question)))

		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, answer, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(answer), "context entries")
	}
}

func TestE2E_CLI(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.BuildBinaries()

	env.Gitingest.Register("acme/handbook", sampleDump)

	out, err := env.RunDocsmith("", "ingest", "acme/handbook")
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "chunks stored")

	out, err = env.RunDocsmith("", "collection", "count")
	require.NoError(t, err, "output: %s", out)
	assert.NotEqual(t, "0", strings.TrimSpace(out))

	out, err = env.RunDocsmith("", "collection", "list", "--source", "acme/handbook")
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "acme/handbook")

	out, err = env.RunDocsmith("", "ask", "how", "does", "ingestion", "work?")
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "context entries")
}
