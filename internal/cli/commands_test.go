package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestApp(t *testing.T) (*cli.App, *bytes.Buffer) {
	t.Helper()

	exiter := cli.OsExiter
	cli.OsExiter = func(int) {}
	t.Cleanup(func() { cli.OsExiter = exiter })

	var out bytes.Buffer
	app := NewApp(&out)
	app.ErrWriter = &bytes.Buffer{}
	return app, &out
}

func TestCommandsRegistered(t *testing.T) {
	app, _ := newTestApp(t)

	for _, name := range []string{"track", "t", "quote", "q", "cancel", "views", "token"} {
		require.NotNil(t, app.Command(name), name)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Run([]string{"ride-tracker", "cancel"})

	var exit cli.ExitCoder
	require.True(t, errors.As(err, &exit))
	require.Equal(t, 2, exit.ExitCode())
}

func TestQuoteRejectsBadPickup(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Run([]string{"ride-tracker", "quote", "--pickup", "north", "--dropoff", "43.2,76.9"})

	var exit cli.ExitCoder
	require.True(t, errors.As(err, &exit))
	require.Contains(t, exit.Error(), "--pickup")
}

func TestTokenCommandPrintsClaims(t *testing.T) {
	app, out := newTestApp(t)

	err := app.Run([]string{"ride-tracker", "token", "--user-id", "rider-7", "--secret", "s3cret"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "TOKEN:")
	require.Contains(t, out.String(), "sub:  rider-7")
	require.Contains(t, out.String(), "role: PASSENGER")
}
