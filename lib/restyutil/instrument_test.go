package restyutil

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.messages[id] = contents
}

func withDebugLogging(t testing.TB) {
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: slog.LevelDebug},
	)))
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestInstrumentClientDumps(t *testing.T) {
	withDebugLogging(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Scout", "yes")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, nil, out)

	_, err := client.R().SetHeader("User-Agent", "scout-test").Get(server.URL + "/currencies/bitcoin/")
	require.NoError(t, err)

	require.Len(t, out.messages, 1)
	dump := out.messages["0001"]
	require.True(t, strings.HasPrefix(dump, "---- REQUEST ----"))
	require.Contains(t, dump, "GET "+server.URL+"/currencies/bitcoin/")
	require.Contains(t, dump, "User-Agent: scout-test")
	require.Contains(t, dump, "X-Scout: yes")
	require.Contains(t, dump, "<html>ok</html>")
}

func TestInstrumentClientWithoutOutput(t *testing.T) {
	withDebugLogging(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := resty.New()
	InstrumentClient(client, nil, nil)

	res, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode())
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.http"), []byte("old"), 0600))

	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "stale.http"))
	require.True(t, os.IsNotExist(err))

	out.Write("7", "contents")
	contents, err := os.ReadFile(filepath.Join(out.Dir(), "7.http"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(contents))
}

func TestInstrumentClientTruncatesDump(t *testing.T) {
	withDebugLogging(t)

	page := strings.Repeat("a", maxDumpBody+10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, nil, out)

	_, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out.messages["0001"], "<truncated 10 bytes>"))
}
