package config

const (
	defaultVideosDir     = "~/.local/share/vidpipe/videos"
	defaultAudioDir      = "~/.local/share/vidpipe/audio"
	defaultTranscriptDir = "~/.local/share/vidpipe/transcripts"
	defaultRefinedDir    = "~/.local/share/vidpipe/refined_transcripts"
	defaultVLMDir        = "~/.local/share/vidpipe/vlm_dataset"
	defaultAdverseDir    = "~/.local/share/vidpipe/adverse_events"
	defaultLogDir        = "~/.local/share/vidpipe/logs"
	defaultLinksFile     = "videos_link.txt"

	defaultMaxDurationSeconds = 1800
	defaultDownloadFormat     = "bestvideo[height=480][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	defaultDownloadTimeout    = 1800

	defaultWhisperModelSize = "large"
	defaultWhisperBinary    = "whisper"

	defaultRefinerModel     = "qwen-3-235b-a22b-thinking-2507"
	defaultRefinerBaseURL   = "https://api.cerebras.ai/v1"
	defaultRefinerCallDelay = 5
	defaultRefinerMaxFiles  = 50

	defaultGatekeeperModel  = "gemini-2.0-flash"
	defaultGeneratorModel   = "gemini-2.5-pro"
	defaultVLMAggregate     = "vlm_dataset_all.jsonl"
	defaultVLMLog           = "vlm_generation_log.csv"
	defaultAdverseModel     = "gemini-2.5-pro"
	defaultAdverseAggregate = "adverse_events_all.jsonl"
	defaultAdverseLog       = "adverse_event_log.csv"

	defaultCollaboratorTimeout = 300

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VideosDir:     defaultVideosDir,
			AudioDir:      defaultAudioDir,
			TranscriptDir: defaultTranscriptDir,
			RefinedDir:    defaultRefinedDir,
			VLMDir:        defaultVLMDir,
			AdverseDir:    defaultAdverseDir,
			LogDir:        defaultLogDir,
			LinksFile:     defaultLinksFile,
		},
		Download: Download{
			MaxDurationSeconds: defaultMaxDurationSeconds,
			Format:             defaultDownloadFormat,
			TimeoutSeconds:     defaultDownloadTimeout,
		},
		Whisper: Whisper{
			ModelSize: defaultWhisperModelSize,
			Binary:    defaultWhisperBinary,
		},
		Refiner: Refiner{
			Model:            defaultRefinerModel,
			BaseURL:          defaultRefinerBaseURL,
			CallDelaySeconds: defaultRefinerCallDelay,
			MaxFilesPerRun:   defaultRefinerMaxFiles,
		},
		VLM: VLM{
			GatekeeperModel: defaultGatekeeperModel,
			GeneratorModel:  defaultGeneratorModel,
			AggregateFile:   defaultVLMAggregate,
			LogFile:         defaultVLMLog,
		},
		AdverseEvent: AdverseEvent{
			Model:         defaultAdverseModel,
			AggregateFile: defaultAdverseAggregate,
			LogFile:       defaultAdverseLog,
		},
		Workflow: Workflow{
			CollaboratorTimeoutSeconds: defaultCollaboratorTimeout,
			DownloadTimeoutSeconds:     defaultDownloadTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
