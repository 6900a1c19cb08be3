package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is the yt-dlp executable name resolved from PATH.
const DefaultBinary = "yt-dlp"

// Runner executes the external binary and returns its combined stdout.
// Overridable for tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client drives the yt-dlp binary for playlist expansion, metadata probing,
// and video retrieval.
type Client struct {
	binary      string
	cookiesFile string
	runner      Runner
}

// Option customizes the client.
type Option func(*Client)

// WithCookiesFile points yt-dlp at a Netscape cookies file when present.
func WithCookiesFile(path string) Option {
	return func(c *Client) {
		c.cookiesFile = strings.TrimSpace(path)
	}
}

// WithRunner sets a custom command runner (for testing).
func WithRunner(runner Runner) Option {
	return func(c *Client) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// NewClient constructs a yt-dlp client.
func NewClient(binary string, opts ...Option) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	client := &Client{binary: binary, runner: runCommand}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Entry is one concrete video reference produced by reference expansion.
type Entry struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Playlist string `json:"playlist,omitempty"`
}

// Metadata describes a single video as reported by yt-dlp.
type Metadata struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Channel         string  `json:"uploader"`
	DurationSeconds float64 `json:"duration"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
}

// Resolution renders the probe dimensions in WxH form, or "N/A" when unknown.
func (m Metadata) Resolution() string {
	if m.Width <= 0 || m.Height <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

type inspectPayload struct {
	Type    string `json:"_type"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"webpage_url"`
	Entries []struct {
		ID    string `json:"id"`
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"entries"`
}

// Inspect expands a reference into its constituent video entries. A playlist
// yields one entry per member; a plain video yields a single entry.
func (c *Client) Inspect(ctx context.Context, reference string) ([]Entry, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("ytdlp inspect: reference required")
	}

	args := c.commonArgs()
	args = append(args, "--flat-playlist", "--dump-single-json", "--skip-download", reference)
	output, err := c.runner(ctx, c.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("ytdlp inspect %s: %w", reference, err)
	}

	var payload inspectPayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return nil, fmt.Errorf("ytdlp inspect %s: parse output: %w", reference, err)
	}

	if payload.Type != "playlist" {
		id := strings.TrimSpace(payload.ID)
		if id == "" {
			return nil, fmt.Errorf("ytdlp inspect %s: missing video id", reference)
		}
		url := strings.TrimSpace(payload.URL)
		if url == "" {
			url = reference
		}
		return []Entry{{ID: id, URL: url, Title: strings.TrimSpace(payload.Title)}}, nil
	}

	entries := make([]Entry, 0, len(payload.Entries))
	for _, raw := range payload.Entries {
		id := strings.TrimSpace(raw.ID)
		url := strings.TrimSpace(raw.URL)
		if id == "" || url == "" {
			continue
		}
		entries = append(entries, Entry{
			ID:       id,
			URL:      url,
			Title:    strings.TrimSpace(raw.Title),
			Playlist: strings.TrimSpace(payload.Title),
		})
	}
	return entries, nil
}

// Probe fetches metadata for a single video without downloading it.
func (c *Client) Probe(ctx context.Context, url string) (Metadata, error) {
	var meta Metadata
	url = strings.TrimSpace(url)
	if url == "" {
		return meta, fmt.Errorf("ytdlp probe: url required")
	}

	args := c.commonArgs()
	args = append(args, "--no-playlist", "--dump-single-json", "--skip-download", url)
	output, err := c.runner(ctx, c.binary, args...)
	if err != nil {
		return meta, fmt.Errorf("ytdlp probe %s: %w", url, err)
	}
	if err := json.Unmarshal(output, &meta); err != nil {
		return meta, fmt.Errorf("ytdlp probe %s: parse output: %w", url, err)
	}
	return meta, nil
}

// Download retrieves a video into destDir and returns the downloaded file path.
func (c *Client) Download(ctx context.Context, url, destDir, format string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", fmt.Errorf("ytdlp download: url required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("ytdlp download: ensure dest dir: %w", err)
	}

	args := c.commonArgs()
	args = append(args,
		"--no-playlist",
		"--merge-output-format", "mp4",
		"--retries", "5",
		"--fragment-retries", "5",
		"--no-simulate",
		"--print", "after_move:filepath",
		"-o", filepath.Join(destDir, "%(id)s.%(ext)s"),
	)
	if strings.TrimSpace(format) != "" {
		args = append(args, "-f", format)
	}
	args = append(args, url)

	output, err := c.runner(ctx, c.binary, args...)
	if err != nil {
		return "", fmt.Errorf("ytdlp download %s: %w", url, err)
	}

	path := lastNonEmptyLine(string(output))
	if path == "" {
		return "", fmt.Errorf("ytdlp download %s: no output path reported", url)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("ytdlp download %s: reported file missing: %w", url, err)
	}
	return path, nil
}

func (c *Client) commonArgs() []string {
	args := []string{"--quiet", "--no-warnings"}
	if c.cookiesFile != "" {
		if _, err := os.Stat(c.cookiesFile); err == nil {
			args = append(args, "--cookies", c.cookiesFile)
		}
	}
	return args
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
