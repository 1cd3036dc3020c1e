package ipfs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/craftchain/marketplace-service/internal/config"

	shell "github.com/ipfs/go-ipfs-api"
)

// Client uploads bytes to a content-addressed store. The returned CID is the
// only handle: retrieval goes through a public gateway.
type Client struct {
	sh         *shell.Shell
	gatewayURL string
}

func New(cfg config.IPFS) *Client {
	return &Client{
		sh:         shell.NewShell(cfg.APIURL),
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
	}
}

// Add uploads data and returns its CID. The upstream client does not take a
// context; deadlines are enforced by its internal HTTP client.
func (c *Client) Add(_ context.Context, data []byte) (string, error) {
	cid, err := c.sh.Add(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to add to ipfs: %w", err)
	}
	return cid, nil
}

// GatewayURL returns a publicly resolvable URL for a CID.
func (c *Client) GatewayURL(cid string) string {
	return c.gatewayURL + "/" + cid
}

// URI returns the canonical content-addressed URI for a CID.
func (c *Client) URI(cid string) string {
	return "ipfs://" + cid
}
