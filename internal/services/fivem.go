package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/istoking/illicitrp-site/pkg/utils"
)

// The official HTTPS listing endpoint; avoids talking to the game port
// directly.
const defaultFivemAPI = "https://servers-frontend.fivem.net/api/servers/single"

const fivemTimeout = 8 * time.Second

// FivemClient fetches server status from the FiveM listing API.
type FivemClient struct {
	http       *retryablehttp.Client
	baseURL    string
	maxPlayers int
}

// FivemStatus is the status block of the /status response. Players is a
// pointer so an offline server renders as null rather than 0.
type FivemStatus struct {
	Online     bool   `json:"online"`
	JoinCode   string `json:"joinCode"`
	Name       string `json:"name"`
	Players    *int   `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Details    string `json:"details,omitempty"`
	Connect    string `json:"connect,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewFivemClient builds a listing client; maxPlayers, when positive,
// overrides the cap reported by the API.
func NewFivemClient(maxPlayers int) *FivemClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.HTTPClient.Timeout = fivemTimeout
	client.Logger = nil

	return &FivemClient{
		http:       client,
		baseURL:    defaultFivemAPI,
		maxPlayers: maxPlayers,
	}
}

// SetBaseURL overrides the API base, used by tests.
func (c *FivemClient) SetBaseURL(u string) { c.baseURL = u }

// Status fetches the live listing for a join code. The fetch is bounded
// by an explicit timeout; expiry counts as failure.
func (c *FivemClient) Status(ctx context.Context, joinCode string) (*FivemStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, fivemTimeout)
	defer cancel()

	endpoint := c.baseURL + "/" + url.PathEscape(joinCode)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "IRP-Edge")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fivem listing failed (%d)", resp.StatusCode)
	}

	hostname := gjson.GetBytes(body, "Data.hostname").String()
	if hostname == "" {
		hostname = "Illicit Roleplay"
	}
	name := utils.StripServerCodes(hostname)

	players := int(gjson.GetBytes(body, "Data.clients").Int())

	max := c.maxPlayers
	if max <= 0 {
		max = int(gjson.GetBytes(body, "Data.sv_maxclients").Int())
	}
	if max <= 0 {
		max = 128
	}

	return &FivemStatus{
		Online:     true,
		JoinCode:   joinCode,
		Name:       name,
		Players:    &players,
		MaxPlayers: max,
		Details:    detailsFromHostname(name),
		Connect:    "https://cfx.re/join/" + joinCode,
	}, nil
}

// OfflineStatus is the degraded payload used when the listing fetch
// fails; the status endpoint never 5xxes on upstream failure.
func (c *FivemClient) OfflineStatus(joinCode string, cause error) *FivemStatus {
	max := c.maxPlayers
	if max <= 0 {
		max = 128
	}
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	return &FivemStatus{
		Online:     false,
		JoinCode:   joinCode,
		Name:       "Illicit Roleplay",
		Players:    nil,
		MaxPlayers: max,
		Error:      errText,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// detailsFromHostname renders "A | B | C" hostnames as "A • B • C" for
// the status banner.
func detailsFromHostname(name string) string {
	parts := []string{}
	for _, p := range strings.Split(name, "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.Join(parts, " • "), " "))
}
