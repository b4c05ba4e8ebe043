package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/istoking/illicitrp-site/internal/changelog"
	"github.com/istoking/illicitrp-site/internal/config"
	"github.com/istoking/illicitrp-site/internal/kv"
	"github.com/istoking/illicitrp-site/internal/services"
)

func fakeChangelogChannel(t *testing.T, messages []changelog.Message) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/messages") {
			json.NewEncoder(w).Encode(messages)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func changelogMessages(n int) []changelog.Message {
	base := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	msgs := make([]changelog.Message, n)
	for i := 0; i < n; i++ {
		msgs[i] = changelog.Message{
			ID:        fmt.Sprintf("%d", 1000-i),
			Content:   fmt.Sprintf("[core] Update %d\n- changed a thing", i),
			Timestamp: base.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
		}
	}
	return msgs
}

func changelogRouter(t *testing.T, cfg *config.Config, srv *httptest.Server, store kv.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dc := services.NewDiscordClient("test-token")
	dc.SetBaseURL(srv.URL)
	parser := changelog.NewParser(time.UTC, cfg.DiscordGuildID, cfg.DiscordChangelogChannelID, cfg.AllowedTags())
	archiver := changelog.NewArchiver(store, cfg.DisplayLimit(), cfg.MonthLimit())

	r := gin.New()
	r.GET("/changelog", Changelog(cfg, dc, parser, archiver))
	r.GET("/changelog/archive", ChangelogArchive(archiver))
	r.GET("/changelog/archive/index", ChangelogArchiveIndex(archiver))
	return r
}

func getJSON(t *testing.T, r *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestChangelog_ServesDisplayWindow(t *testing.T) {
	srv := fakeChangelogChannel(t, changelogMessages(8))
	cfg := &config.Config{
		DiscordBotToken:           "tok",
		DiscordGuildID:            "guild-1",
		DiscordChangelogChannelID: "chan-1",
		ChangelogLimit:            "5",
	}
	r := changelogRouter(t, cfg, srv, kv.NewMemoryStore())

	code, body := getJSON(t, r, "/changelog")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "discord", body["source"])
	assert.Equal(t, float64(5), body["count"])

	entries := body["entries"].([]any)
	require.Len(t, entries, 5)
	first := entries[0].(map[string]any)
	assert.Equal(t, "Update 0", first["title"])
	assert.Equal(t, []any{"core"}, first["tags"])
	assert.Contains(t, first["url"], "discord.com/channels/guild-1/chan-1/1000")

	archive := body["archive"].(map[string]any)
	assert.Equal(t, true, archive["enabled"])
}

func TestChangelog_ArchivesOverflowAcrossEndpoints(t *testing.T) {
	srv := fakeChangelogChannel(t, changelogMessages(8))
	cfg := &config.Config{
		DiscordBotToken:           "tok",
		DiscordChangelogChannelID: "chan-1",
		ChangelogLimit:            "5",
	}
	r := changelogRouter(t, cfg, srv, kv.NewMemoryStore())

	code, _ := getJSON(t, r, "/changelog")
	require.Equal(t, http.StatusOK, code)

	code, body := getJSON(t, r, "/changelog/archive/index")
	require.Equal(t, http.StatusOK, code)
	months := body["months"].([]any)
	require.Len(t, months, 1)
	month := months[0].(map[string]any)
	assert.Equal(t, "2024-05", month["month"])
	assert.Equal(t, float64(3), month["count"])

	code, body = getJSON(t, r, "/changelog/archive?month=2024-05")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["count"])
	assert.Len(t, body["entries"].([]any), 3)
}

func TestChangelog_MissingTokenIsServerError(t *testing.T) {
	srv := fakeChangelogChannel(t, nil)
	cfg := &config.Config{DiscordChangelogChannelID: "chan-1"}
	r := changelogRouter(t, cfg, srv, kv.NewMemoryStore())

	code, body := getJSON(t, r, "/changelog")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Missing DISCORD_BOT_TOKEN", body["error"])
}

func TestChangelog_MissingChannelIsServerError(t *testing.T) {
	srv := fakeChangelogChannel(t, nil)
	cfg := &config.Config{DiscordBotToken: "tok"}
	r := changelogRouter(t, cfg, srv, kv.NewMemoryStore())

	code, body := getJSON(t, r, "/changelog")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Missing DISCORD_CHANGELOG_CHANNEL_ID", body["error"])
}

func TestChangelogArchive_RejectsBadMonth(t *testing.T) {
	srv := fakeChangelogChannel(t, nil)
	cfg := &config.Config{DiscordBotToken: "tok", DiscordChangelogChannelID: "chan-1"}
	r := changelogRouter(t, cfg, srv, kv.NewMemoryStore())

	for _, month := range []string{"", "2024", "2024-5", "05-2024", "2024-05-01"} {
		code, _ := getJSON(t, r, "/changelog/archive?month="+month)
		assert.Equal(t, http.StatusBadRequest, code, "month %q", month)
	}
}

func TestChangelogArchive_DisabledWithoutStore(t *testing.T) {
	srv := fakeChangelogChannel(t, nil)
	cfg := &config.Config{DiscordBotToken: "tok", DiscordChangelogChannelID: "chan-1"}
	r := changelogRouter(t, cfg, srv, nil)

	code, _ := getJSON(t, r, "/changelog/archive?month=2024-05")
	assert.Equal(t, http.StatusNotImplemented, code)

	code, _ = getJSON(t, r, "/changelog/archive/index")
	assert.Equal(t, http.StatusNotImplemented, code)
}
