// Package commands holds the built-in command handlers loaded into the
// registry at startup.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tinyland-inc/botfleet/pkg/handler"
	"github.com/tinyland-inc/botfleet/pkg/logger"
	"github.com/tinyland-inc/botfleet/pkg/platform"
	"github.com/tinyland-inc/botfleet/pkg/resolver"
	"github.com/tinyland-inc/botfleet/pkg/utils"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// URLCommand downloads videos linked in chat. It serves two entry points:
// the URL-detection stage invokes it with no args for any detected link,
// and operators toggle it with "url on" / "url off". The toggle survives
// restarts via a small JSON status file.
type URLCommand struct {
	resolver   *resolver.Client
	statusPath string
	timeout    time.Duration
	mu         sync.Mutex
}

type urlStatus struct {
	Enabled bool `json:"enabled"`
}

func NewURLCommand(res *resolver.Client, statusPath string, downloadTimeout time.Duration) *URLCommand {
	return &URLCommand{
		resolver:   res,
		statusPath: statusPath,
		timeout:    downloadTimeout,
	}
}

func (c *URLCommand) Name() string    { return "url" }
func (c *URLCommand) Version() string { return "2.0" }
func (c *URLCommand) UsePrefix() bool { return true }

func (c *URLCommand) Usage() string {
	return "url on|off | Detects and downloads videos from TikTok, Instagram, and Facebook"
}

func (c *URLCommand) Execute(ctx context.Context, conn platform.Conn, event platform.Event, args []string) error {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			if err := c.setEnabled(true); err != nil {
				return err
			}
			return conn.SendMessage(ctx, platform.Outgoing{Text: "URL detection is now ON."}, event.ConversationID, event.MessageID)
		case "off":
			if err := c.setEnabled(false); err != nil {
				return err
			}
			return conn.SendMessage(ctx, platform.Outgoing{Text: "URL detection is now OFF."}, event.ConversationID, event.MessageID)
		}
	}

	if !c.enabled() {
		return nil
	}

	videoURL := urlPattern.FindString(event.Body)
	if videoURL == "" {
		return nil
	}

	label := platformLabel(videoURL)
	if label == "" {
		// Unsupported site, stay silent.
		return nil
	}

	if err := conn.SendMessage(ctx, platform.Outgoing{
		Text: fmt.Sprintf("Detected URL: %s\nPlatform: %s", videoURL, label),
	}, event.ConversationID, ""); err != nil {
		return err
	}
	c.react(ctx, conn, event, "⏳")

	directURL, err := c.resolver.Resolve(ctx, videoURL)
	if err != nil {
		c.react(ctx, conn, event, "❌")
		c.report(ctx, conn, event, "Failed to fetch video.")
		return err
	}

	localPath, err := utils.DownloadFile(directURL, "video.mp4", utils.DownloadOptions{Timeout: c.timeout})
	if err != nil {
		c.react(ctx, conn, event, "❌")
		c.report(ctx, conn, event, "Failed to download video.")
		return err
	}
	defer os.Remove(localPath)

	c.react(ctx, conn, event, "✅")
	if err := conn.SendMessage(ctx, platform.Outgoing{
		Text:  fmt.Sprintf("Here is your video from %s!", label),
		Files: []string{localPath},
	}, event.ConversationID, event.MessageID); err != nil {
		c.report(ctx, conn, event, "Failed to send video.")
		return err
	}
	return nil
}

// report pushes a user-visible failure back into the conversation; the
// send itself is best-effort.
func (c *URLCommand) report(ctx context.Context, conn platform.Conn, event platform.Event, text string) {
	if err := conn.SendMessage(ctx, platform.Outgoing{Text: text}, event.ConversationID, event.MessageID); err != nil {
		logger.WarnCF("commands", "Failed to report download failure", map[string]any{
			"conversation": event.ConversationID,
			"error":        err.Error(),
		})
	}
}

func (c *URLCommand) react(ctx context.Context, conn platform.Conn, event platform.Event, emoji string) {
	if event.MessageID == "" {
		return
	}
	if err := conn.SetReaction(ctx, emoji, event.ConversationID, event.MessageID); err != nil {
		logger.DebugCF("commands", "Failed to set reaction", map[string]any{
			"emoji": emoji,
			"error": err.Error(),
		})
	}
}

// enabled defaults to true when no status file exists.
func (c *URLCommand) enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.statusPath)
	if err != nil {
		return true
	}
	var status urlStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return true
	}
	return status.Enabled
}

func (c *URLCommand) setEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(urlStatus{Enabled: enabled})
	if err != nil {
		return err
	}
	return os.WriteFile(c.statusPath, data, 0644)
}

func platformLabel(videoURL string) string {
	switch {
	case strings.Contains(videoURL, "tiktok.com"):
		return "TikTok"
	case strings.Contains(videoURL, "instagram.com"):
		return "Instagram"
	case strings.Contains(videoURL, "facebook.com"):
		return "Facebook"
	default:
		return ""
	}
}

var _ handler.Command = (*URLCommand)(nil)
