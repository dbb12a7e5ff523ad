package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/netx"
)

// Client calls the internal account endpoints of a GophAuth server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: hc}
}

// DeleteAccount permanently removes the account with the given id.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/internal/accounts/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	req.Header.Set(common.APIKeyHeaderName, c.apiKey)

	err = netx.Send(c.http, req)

	var se *netx.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("account %s: %w", id, common.ErrorNotFound)
		case http.StatusUnauthorized:
			return fmt.Errorf("api key rejected: %w", common.ErrorUnauthorized)
		}
	}
	return err
}
