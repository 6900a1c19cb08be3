package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateRefiner(); err != nil {
		return err
	}
	if err := c.validateVLM(); err != nil {
		return err
	}
	if err := c.validateAdverseEvent(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	named := map[string]string{
		"paths.videos_dir":     c.Paths.VideosDir,
		"paths.audio_dir":      c.Paths.AudioDir,
		"paths.transcript_dir": c.Paths.TranscriptDir,
		"paths.refined_dir":    c.Paths.RefinedDir,
		"paths.vlm_dir":        c.Paths.VLMDir,
		"paths.adverse_dir":    c.Paths.AdverseDir,
		"paths.log_dir":        c.Paths.LogDir,
		"paths.links_file":     c.Paths.LinksFile,
	}
	for key, value := range named {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.MaxDurationSeconds <= 0 {
		return errors.New("download.max_duration_seconds must be positive")
	}
	if c.Download.TimeoutSeconds <= 0 {
		return errors.New("download.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRefiner() error {
	if strings.TrimSpace(c.Refiner.Model) == "" {
		return errors.New("refiner.model must be set")
	}
	if strings.TrimSpace(c.Refiner.BaseURL) == "" {
		return errors.New("refiner.base_url must be set")
	}
	return nil
}

func (c *Config) validateVLM() error {
	if strings.TrimSpace(c.VLM.GatekeeperModel) == "" {
		return errors.New("vlm.gatekeeper_model must be set")
	}
	if strings.TrimSpace(c.VLM.GeneratorModel) == "" {
		return errors.New("vlm.generator_model must be set")
	}
	if strings.TrimSpace(c.VLM.AggregateFile) == "" {
		return errors.New("vlm.aggregate_file must be set")
	}
	if strings.TrimSpace(c.VLM.LogFile) == "" {
		return errors.New("vlm.log_file must be set")
	}
	return nil
}

func (c *Config) validateAdverseEvent() error {
	if strings.TrimSpace(c.AdverseEvent.Model) == "" {
		return errors.New("adverse_event.model must be set")
	}
	if strings.TrimSpace(c.AdverseEvent.AggregateFile) == "" {
		return errors.New("adverse_event.aggregate_file must be set")
	}
	if strings.TrimSpace(c.AdverseEvent.LogFile) == "" {
		return errors.New("adverse_event.log_file must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.CollaboratorTimeoutSeconds <= 0 {
		return errors.New("workflow.collaborator_timeout_seconds must be positive")
	}
	if c.Workflow.DownloadTimeoutSeconds <= 0 {
		return errors.New("workflow.download_timeout_seconds must be positive")
	}
	return nil
}
