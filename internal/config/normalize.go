package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDownload(); err != nil {
		return err
	}
	c.normalizeWhisper()
	c.normalizeRefiner()
	c.normalizeVLM()
	c.normalizeAdverseEvent()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.VideosDir, err = expandPath(c.Paths.VideosDir); err != nil {
		return fmt.Errorf("paths.videos_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if c.Paths.TranscriptDir, err = expandPath(c.Paths.TranscriptDir); err != nil {
		return fmt.Errorf("paths.transcript_dir: %w", err)
	}
	if c.Paths.RefinedDir, err = expandPath(c.Paths.RefinedDir); err != nil {
		return fmt.Errorf("paths.refined_dir: %w", err)
	}
	if c.Paths.VLMDir, err = expandPath(c.Paths.VLMDir); err != nil {
		return fmt.Errorf("paths.vlm_dir: %w", err)
	}
	if c.Paths.AdverseDir, err = expandPath(c.Paths.AdverseDir); err != nil {
		return fmt.Errorf("paths.adverse_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LinksFile, err = expandPath(c.Paths.LinksFile); err != nil {
		return fmt.Errorf("paths.links_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownload() error {
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	if c.Download.MaxDurationSeconds <= 0 {
		c.Download.MaxDurationSeconds = defaultMaxDurationSeconds
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
	if strings.TrimSpace(c.Download.CookiesFile) != "" {
		expanded, err := expandPath(c.Download.CookiesFile)
		if err != nil {
			return fmt.Errorf("download.cookies_file: %w", err)
		}
		c.Download.CookiesFile = expanded
	}
	return nil
}

func (c *Config) normalizeWhisper() {
	c.Whisper.ModelSize = strings.TrimSpace(c.Whisper.ModelSize)
	if c.Whisper.ModelSize == "" {
		c.Whisper.ModelSize = defaultWhisperModelSize
	}
	c.Whisper.Device = strings.ToLower(strings.TrimSpace(c.Whisper.Device))
	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	if c.Whisper.Binary == "" {
		c.Whisper.Binary = defaultWhisperBinary
	}
}

func (c *Config) normalizeRefiner() {
	c.Refiner.Model = strings.TrimSpace(c.Refiner.Model)
	if c.Refiner.Model == "" {
		c.Refiner.Model = defaultRefinerModel
	}
	c.Refiner.BaseURL = strings.TrimRight(strings.TrimSpace(c.Refiner.BaseURL), "/")
	if c.Refiner.BaseURL == "" {
		c.Refiner.BaseURL = defaultRefinerBaseURL
	}
	c.Refiner.APIKey = strings.TrimSpace(c.Refiner.APIKey)
	if c.Refiner.APIKey == "" {
		if value, ok := os.LookupEnv("CEREBRAS_API_KEY"); ok {
			c.Refiner.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Refiner.CallDelaySeconds < 0 {
		c.Refiner.CallDelaySeconds = 0
	}
	if c.Refiner.MaxFilesPerRun <= 0 {
		c.Refiner.MaxFilesPerRun = defaultRefinerMaxFiles
	}
}

func (c *Config) normalizeVLM() {
	c.VLM.GatekeeperModel = strings.TrimSpace(c.VLM.GatekeeperModel)
	if c.VLM.GatekeeperModel == "" {
		c.VLM.GatekeeperModel = defaultGatekeeperModel
	}
	c.VLM.GeneratorModel = strings.TrimSpace(c.VLM.GeneratorModel)
	if c.VLM.GeneratorModel == "" {
		c.VLM.GeneratorModel = defaultGeneratorModel
	}
	c.VLM.AggregateFile = strings.TrimSpace(c.VLM.AggregateFile)
	if c.VLM.AggregateFile == "" {
		c.VLM.AggregateFile = defaultVLMAggregate
	}
	c.VLM.LogFile = strings.TrimSpace(c.VLM.LogFile)
	if c.VLM.LogFile == "" {
		c.VLM.LogFile = defaultVLMLog
	}
	c.VLM.APIKey = strings.TrimSpace(c.VLM.APIKey)
	if c.VLM.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.VLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeAdverseEvent() {
	c.AdverseEvent.Model = strings.TrimSpace(c.AdverseEvent.Model)
	if c.AdverseEvent.Model == "" {
		c.AdverseEvent.Model = defaultAdverseModel
	}
	c.AdverseEvent.AggregateFile = strings.TrimSpace(c.AdverseEvent.AggregateFile)
	if c.AdverseEvent.AggregateFile == "" {
		c.AdverseEvent.AggregateFile = defaultAdverseAggregate
	}
	c.AdverseEvent.LogFile = strings.TrimSpace(c.AdverseEvent.LogFile)
	if c.AdverseEvent.LogFile == "" {
		c.AdverseEvent.LogFile = defaultAdverseLog
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.CollaboratorTimeoutSeconds <= 0 {
		c.Workflow.CollaboratorTimeoutSeconds = defaultCollaboratorTimeout
	}
	if c.Workflow.DownloadTimeoutSeconds <= 0 {
		c.Workflow.DownloadTimeoutSeconds = defaultDownloadTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
