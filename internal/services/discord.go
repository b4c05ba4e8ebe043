package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/istoking/illicitrp-site/internal/changelog"
)

const defaultDiscordAPI = "https://discord.com/api/v10"

// DiscordClient is a thin client over the Discord REST API, covering
// the handful of endpoints this service consumes: channel message
// listing and posting, guild counts, and role lookups.
type DiscordClient struct {
	http    *retryablehttp.Client
	token   string
	baseURL string
}

// GuildCounts holds the approximate member totals Discord reports when
// a guild is fetched with_counts.
type GuildCounts struct {
	Members int `json:"members"`
	Online  int `json:"online"`
}

// DiscordUser is the identity returned by /users/@me during OAuth.
type DiscordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

// Role is a guild role (id + display name).
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Embed is the message embed shape used by the application relay.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// NewDiscordClient builds a client authenticated with a bot token.
func NewDiscordClient(token string) *DiscordClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil

	return &DiscordClient{
		http:    client,
		token:   token,
		baseURL: defaultDiscordAPI,
	}
}

// SetBaseURL overrides the API base, used by tests.
func (c *DiscordClient) SetBaseURL(u string) { c.baseURL = u }

// ChannelMessages lists the most recent messages of a channel, newest
// first, up to limit (Discord caps it at 100).
func (c *DiscordClient) ChannelMessages(ctx context.Context, channelID string, limit int) ([]changelog.Message, error) {
	url := fmt.Sprintf("%s/channels/%s/messages?limit=%d", c.baseURL, channelID, limit)
	body, err := c.get(ctx, url, "Bot "+c.token)
	if err != nil {
		return nil, err
	}

	var msgs []changelog.Message
	if err := json.Unmarshal(body, &msgs); err != nil {
		return nil, fmt.Errorf("decode channel messages: %w", err)
	}
	return msgs, nil
}

// PostEmbed posts one embed to a channel.
func (c *DiscordClient) PostEmbed(ctx context.Context, channelID string, embed Embed) error {
	payload, err := json.Marshal(map[string]any{"embeds": []Embed{embed}})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord post failed (%d)", resp.StatusCode)
	}
	return nil
}

// GuildCounts fetches approximate member and presence counts.
func (c *DiscordClient) GuildCounts(ctx context.Context, guildID string) (*GuildCounts, error) {
	url := fmt.Sprintf("%s/guilds/%s?with_counts=true", c.baseURL, guildID)
	body, err := c.get(ctx, url, "Bot "+c.token)
	if err != nil {
		return nil, err
	}

	return &GuildCounts{
		Members: int(gjson.GetBytes(body, "approximate_member_count").Int()),
		Online:  int(gjson.GetBytes(body, "approximate_presence_count").Int()),
	}, nil
}

// CurrentUser fetches the OAuth user identity with a bearer token.
func (c *DiscordClient) CurrentUser(ctx context.Context, accessToken string) (*DiscordUser, error) {
	body, err := c.get(ctx, c.baseURL+"/users/@me", "Bearer "+accessToken)
	if err != nil {
		return nil, err
	}

	var user DiscordUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode discord user: %w", err)
	}
	return &user, nil
}

// MemberRoles returns the role ids of a guild member.
func (c *DiscordClient) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	url := fmt.Sprintf("%s/guilds/%s/members/%s", c.baseURL, guildID, userID)
	body, err := c.get(ctx, url, "Bot "+c.token)
	if err != nil {
		return nil, err
	}

	var roles []string
	for _, r := range gjson.GetBytes(body, "roles").Array() {
		roles = append(roles, r.String())
	}
	return roles, nil
}

// GuildRoles returns all roles defined in the guild.
func (c *DiscordClient) GuildRoles(ctx context.Context, guildID string) ([]Role, error) {
	url := fmt.Sprintf("%s/guilds/%s/roles", c.baseURL, guildID)
	body, err := c.get(ctx, url, "Bot "+c.token)
	if err != nil {
		return nil, err
	}

	var roles []Role
	if err := json.Unmarshal(body, &roles); err != nil {
		return nil, fmt.Errorf("decode guild roles: %w", err)
	}
	return roles, nil
}

func (c *DiscordClient) get(ctx context.Context, url, authorization string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authorization)

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
		return nil, fmt.Errorf("discord fetch failed (%d)", resp.StatusCode)
	}
	return body, nil
}
