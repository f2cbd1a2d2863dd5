package notify

import (
	"context"
	"io"
	"log"
	"testing"

	"cryptoscout/internal/asset"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSubject(t *testing.T) {
	require.Equal(t, "2 assets below a market cap / FDV ratio of 0.3", Subject(0.3, 2))
	require.Equal(t, "0 assets below a market cap / FDV ratio of 1.0", Subject(1, 0))
}

func TestEnabled(t *testing.T) {
	require.False(t, SmtpConfig{}.Enabled())
	require.False(t, SmtpConfig{Server: "localhost", EmailAddress: "scout@email.com"}.Enabled())
	require.True(t, SmtpConfig{
		Server:       "localhost",
		EmailAddress: "scout@email.com",
		To:           []string{"alice@email.com"},
	}.Enabled())
}

func TestNotifyFiltered(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtpServer, err := testcontainers.GenericContainer(
		context.Background(),
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025:1025", "1080:1080"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := smtpServer.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}()

	notifier := NewNotifier(SmtpConfig{
		Server:       "localhost",
		Port:         1025,
		EmailAddress: "scout@email.com",
		Password:     "default",
		To:           []string{"alice@email.com"},
	})

	records := []asset.Record{
		asset.NewRecord(asset.Fields{Name: "Example", Symbol: "EXM", MarketCap: "$1B", FDV: "$5B"}),
	}
	err = notifier.NotifyFiltered(context.Background(), 0.3, records)
	require.NoError(t, err)

	res, err := resty.New().R().Get("http://127.0.0.1:1080/messages/1.plain")
	require.NoError(t, err)
	require.Contains(t, res.String(), "Example")
	require.Contains(t, res.String(), "0.2000")
}
