package config

const (
	defaultBuildDir          = "build"
	defaultVersionsDir       = "versions"
	defaultLogDir            = "logs"
	defaultVideoWidth        = 1080
	defaultVideoHeight       = 1920
	defaultVideoFPS          = 30
	defaultCrossfadeSeconds  = 0.45
	defaultImageWidth        = 720
	defaultImageHeight       = 1280
	defaultImageSteps        = 9
	defaultImageGuidance     = 0.0
	defaultBaseSeed          = 1337
	defaultAlignBinary       = "mfa"
	defaultAlignDictionary   = "english_us_arpa"
	defaultAlignAcoustic     = "english_us_arpa"
	defaultAlignSampleRate   = 16000
	defaultSubtitleFont      = "Arial"
	defaultSubtitleFontSize  = 64
	defaultSubtitleMarginV   = 220
	defaultSubtitleOutline   = 3
	defaultMaxWordsPerLine   = 4
	defaultMaxLineSeconds    = 2.5
	defaultMaxWordGapSeconds = 0.35
	defaultBGMVolume         = 0.2
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMTimeoutSecs    = 120
	defaultLLMTemperature    = 0.7
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultSceneWorkers      = 2
	defaultStageTimeoutSecs  = 1800
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir:  ".",
			BuildDir:    defaultBuildDir,
			VersionsDir: defaultVersionsDir,
			LogDir:      defaultLogDir,
		},
		Video: Video{
			Width:            defaultVideoWidth,
			Height:           defaultVideoHeight,
			FPS:              defaultVideoFPS,
			CrossfadeSeconds: defaultCrossfadeSeconds,
		},
		Images: Images{
			Width:    defaultImageWidth,
			Height:   defaultImageHeight,
			Steps:    defaultImageSteps,
			Guidance: defaultImageGuidance,
			BaseSeed: defaultBaseSeed,
		},
		Align: Align{
			Binary:        defaultAlignBinary,
			Dictionary:    defaultAlignDictionary,
			AcousticModel: defaultAlignAcoustic,
			SampleRate:    defaultAlignSampleRate,
		},
		Subtitles: Subtitles{
			FontName:          defaultSubtitleFont,
			FontSize:          defaultSubtitleFontSize,
			MarginV:           defaultSubtitleMarginV,
			Outline:           defaultSubtitleOutline,
			MaxWordsPerLine:   defaultMaxWordsPerLine,
			MaxLineSeconds:    defaultMaxLineSeconds,
			MaxWordGapSeconds: defaultMaxWordGapSeconds,
		},
		BGM: BGM{
			Volume: defaultBGMVolume,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			TimeoutSeconds: defaultLLMTimeoutSecs,
			Temperature:    defaultLLMTemperature,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Workflow: Workflow{
			SceneWorkers:        defaultSceneWorkers,
			StageTimeoutSeconds: defaultStageTimeoutSecs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
