// Package admin implements authadmin, the operator tool that hard-deletes
// accounts through the internal API of a GophAuth server.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"
)

// errFailed is returned by Run when at least one deletion failed.
var errFailed = errors.New("some deletions failed")

type App struct {
	config *Config
	reader *bufio.Reader
	out    io.Writer
	client *Client
}

func NewApp(c *Config, in io.Reader, out io.Writer) *App {
	return &App{config: c, reader: bufio.NewReader(in), out: out}
}

// Run deletes every account in ids. Without ids, one id is read from the
// input. A missing API key is prompted for on the terminal.
func (a *App) Run(ctx context.Context, ids []string) error {
	if a.config.APIKey == "" {
		key, err := GetAPIKey(int(os.Stdin.Fd()), a.out)
		if err != nil {
			return fmt.Errorf("read api key: %w", err)
		}
		a.config.APIKey = key
	}
	if a.client == nil {
		a.client = NewClient(a.config.ServerURL, a.config.APIKey, &http.Client{Timeout: a.config.Timeout})
	}

	if len(ids) == 0 {
		id, err := GetSimpleText(a.reader, "Account id to delete", a.out)
		if err != nil {
			return err
		}
		ids = []string{id}
	}

	failed := false
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			fmt.Fprintf(a.out, "%s: not a valid account id\n", id)
			failed = true
			continue
		}
		if err := a.client.DeleteAccount(ctx, id); err != nil {
			fmt.Fprintf(a.out, "%s: %v\n", id, err)
			failed = true
			continue
		}
		fmt.Fprintf(a.out, "%s: deleted\n", id)
	}

	if failed {
		return errFailed
	}
	return nil
}
