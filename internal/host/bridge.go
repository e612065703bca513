package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/radi8/getajob/internal/afk"
	"github.com/rs/zerolog"
)

const nameCacheSize = 512

// Bridge talks to the game server's companion HTTP endpoint. It is the
// production Gateway implementation.
type Bridge struct {
	baseURL   string
	client    *retryablehttp.Client
	nameCache *lru.Cache[string, string]
	logger    zerolog.Logger
}

// BridgeConfig configures the host bridge client.
type BridgeConfig struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

// NewBridge creates a Gateway backed by the host's HTTP bridge.
func NewBridge(cfg BridgeConfig, logger zerolog.Logger) (*Bridge, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid host base URL: %w", err)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil

	cache, err := lru.New[string, string](nameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create name cache: %w", err)
	}

	return &Bridge{
		baseURL:   cfg.BaseURL,
		client:    client,
		nameCache: cache,
		logger:    logger.With().Str("component", "host-bridge").Logger(),
	}, nil
}

// OnlinePlayers lists currently connected players.
func (b *Bridge) OnlinePlayers(ctx context.Context) ([]Player, error) {
	var out struct {
		Players []Player `json:"players"`
	}
	if err := b.getJSON(ctx, "/players", &out); err != nil {
		return nil, err
	}

	for _, p := range out.Players {
		b.nameCache.Add(p.ID, p.Name)
	}
	return out.Players, nil
}

// PlayerPosition fetches one player's current position.
func (b *Bridge) PlayerPosition(ctx context.Context, playerID string) (afk.Position, error) {
	var pos afk.Position
	err := b.getJSON(ctx, "/players/"+url.PathEscape(playerID)+"/position", &pos)
	return pos, err
}

// ResolveName resolves a player ID to a display name. Names are cached
// because the host's lookup also covers offline players and is slow.
func (b *Bridge) ResolveName(ctx context.Context, playerID string) (string, error) {
	if name, ok := b.nameCache.Get(playerID); ok {
		return name, nil
	}

	var out Player
	if err := b.getJSON(ctx, "/players/"+url.PathEscape(playerID), &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", fmt.Errorf("host returned no name for %s", playerID)
	}

	b.nameCache.Add(playerID, out.Name)
	return out.Name, nil
}

// Kick removes a player with a message.
func (b *Bridge) Kick(ctx context.Context, playerID, message string) error {
	return b.postJSON(ctx, "/players/"+url.PathEscape(playerID)+"/kick",
		map[string]string{"message": message})
}

// Broadcast sends a message to all connected players.
func (b *Bridge) Broadcast(ctx context.Context, message string) error {
	return b.postJSON(ctx, "/broadcast", map[string]string{"message": message})
}

func (b *Bridge) getJSON(ctx context.Context, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("host request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode host response %s: %w", path, err)
	}
	return nil
}

func (b *Bridge) postJSON(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("host request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, resp.Body)
	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrPlayerOffline
	case resp.StatusCode >= 400:
		return fmt.Errorf("host returned status %d", resp.StatusCode)
	}
	return nil
}
