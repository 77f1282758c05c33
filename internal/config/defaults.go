package config

const (
	defaultWorkdir        = "~/.local/share/videogen"
	defaultLogDir         = "~/.local/share/videogen/logs"
	defaultTaskTableName  = "tasks.csv"
	defaultRemoteBaseURL  = "https://api.siliconflow.cn/v1/video"
	defaultRemoteModel    = "Wan-AI/Wan2.2-T2V-A14B"
	defaultImageSize      = "1280x720"
	defaultRequestTimeout = 30
	defaultSubmitRetries  = 4
	defaultPollInterval   = 8
	defaultMaxPolls       = 120
	defaultIdleRounds     = 3
	defaultWaitTimeout    = 1200
	defaultMaxWidth       = 1920
	defaultMaxHeight      = 1080
	defaultPreset         = "slow"
	defaultCRF            = 14
	defaultPixelFormat    = "yuv420p"
	defaultAudioRate      = 44100
	defaultAudioBitrate   = "192k"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultNotifyTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Workdir: defaultWorkdir,
			LogDir:  defaultLogDir,
		},
		Remote: Remote{
			BaseURL:        defaultRemoteBaseURL,
			Model:          defaultRemoteModel,
			ImageSize:      defaultImageSize,
			RequestTimeout: defaultRequestTimeout,
			SubmitRetries:  defaultSubmitRetries,
		},
		Worker: Worker{
			PollInterval: defaultPollInterval,
			MaxPolls:     defaultMaxPolls,
			IdleRounds:   defaultIdleRounds,
			WaitTimeout:  defaultWaitTimeout,
		},
		Assembly: Assembly{
			MaxWidth:     defaultMaxWidth,
			MaxHeight:    defaultMaxHeight,
			Preset:       defaultPreset,
			CRF:          defaultCRF,
			PixelFormat:  defaultPixelFormat,
			AudioRate:    defaultAudioRate,
			AudioBitrate: defaultAudioBitrate,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
