package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"cryptoscout/lib/telemetry"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const listingPage = `<html><body>
<table><tbody>
<tr data-rank="1"><td><a href="/currencies/bitcoin/">Bitcoin</a></td></tr>
<tr data-rank="2"><td><a href="/currencies/ethereum/">Ethereum</a></td></tr>
</tbody></table>
<div style="height: 5000px"></div>
<ul class="pagination"><li class="next"><a href="/?page=2">Next</a></li></ul>
</body></html>`

func dataURL(html string) string {
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	require.Equal(t, DefaultWindowWidth, cfg.WindowWidth)
	require.Equal(t, DefaultWindowHeight, cfg.WindowHeight)

	cfg = Config{WindowWidth: 800, WindowHeight: 600}.WithDefaults()
	require.Equal(t, 800, cfg.WindowWidth)
	require.Equal(t, 600, cfg.WindowHeight)
}

func TestChrome(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	shell, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "chromedp/headless-shell:latest",
				ExposedPorts: []string{"9222/tcp"},
				WaitingFor:   wait.ForListeningPort("9222/tcp"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := shell.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}()

	host, err := shell.Host(ctx)
	require.NoError(t, err)
	port, err := shell.MappedPort(ctx, "9222/tcp")
	require.NoError(t, err)

	chrome, err := New(ctx, Config{
		RemoteURL: fmt.Sprintf("ws://%s:%s", host, port.Port()),
	}, &telemetry.MemoryAPI{})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, chrome.Close())
	}()

	require.NoError(t, chrome.Load(ctx, dataURL(listingPage)))

	found, err := chrome.WaitForSelector(ctx, "tbody", 10*time.Second)
	require.NoError(t, err)
	require.True(t, found)

	found, err = chrome.WaitForSelector(ctx, "div.never-rendered", 500*time.Millisecond)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, chrome.ScrollBy(ctx, 1<<20))
	require.NoError(t, chrome.ScrollBy(ctx, -200))

	rows, err := chrome.FindAll(ctx, "tbody tr")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	rank, ok := rows[1].Attr("data-rank")
	require.True(t, ok)
	require.Equal(t, "2", rank)

	next, err := chrome.FindAll(ctx, "ul.pagination li.next a[href]")
	require.NoError(t, err)
	require.Len(t, next, 1)
	href, _ := next[0].Attr("href")
	require.Equal(t, "/?page=2", href)

	missing, err := chrome.FindAll(ctx, "ul.missing")
	require.NoError(t, err)
	require.Empty(t, missing)

	markup, err := chrome.CurrentMarkup(ctx)
	require.NoError(t, err)
	require.Contains(t, markup, "/currencies/ethereum/")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = chrome.WaitForSelector(cancelled, "tbody", time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
