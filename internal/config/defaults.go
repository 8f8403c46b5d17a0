package config

const (
	defaultCacheDir    = "~/.cache/romajitool/audio"
	defaultLogDir      = "~/.local/share/romajitool/logs"
	defaultCookiesFile = "~/.cache/romajitool/cookies.txt"

	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultDownloaderBinary   = "yt-dlp"
	defaultAltExtractorBinary = "youtube-dl"
	defaultUVXBinary          = "uvx"
	defaultKakasiBinary       = "kakasi"

	defaultStallTimeoutSeconds  = 30
	defaultWatchdogPollSeconds  = 5
	defaultSocketTimeoutSeconds = 15
	defaultDownloadRetries      = 3
	defaultFragmentRetries      = 3
	defaultConcurrentFragments  = 4
	defaultHTTPChunkSizeBytes   = 1048576

	defaultTranscodeTimeoutSeconds = 60
	defaultCacheMaxAgeHours        = 6
	defaultCacheMinSizeKB          = 200
	defaultMinDurationSeconds      = 5
	defaultLoudnessTargetLUFS      = -16
	defaultTruePeakDB              = -1.5
	defaultLoudnessRange           = 11
	defaultGainBoostDB             = 5
	defaultSilenceNoiseDB          = -30
	defaultSilenceMinSeconds       = 0.5
	defaultChunkWindowSeconds      = 10
	defaultChunkMinRegionSeconds   = 5
	defaultChunkOverlapSeconds     = 0.5

	defaultWhisperModel              = "large-v3"
	defaultWhisperDevice             = "auto"
	defaultBeamSize                  = 5
	defaultBestOf                    = 5
	defaultNoSpeechThresholdPlain    = 0.10
	defaultNoSpeechThresholdVAD      = 0.05
	defaultLogProbThreshold          = -1.2
	defaultCompressionRatioThreshold = 2.6
	defaultVADMinSilenceMS           = 300

	defaultLyricsBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultLyricsModel          = "gpt-4o"
	defaultLyricsTimeoutSeconds = 60

	defaultLogLevel  = "info"
	defaultLogFormat = ""
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:    defaultCacheDir,
			LogDir:      defaultLogDir,
			CookiesFile: defaultCookiesFile,
		},
		Binaries: Binaries{
			FFmpeg:       defaultFFmpegBinary,
			FFprobe:      defaultFFprobeBinary,
			Downloader:   defaultDownloaderBinary,
			AltExtractor: defaultAltExtractorBinary,
			UVX:          defaultUVXBinary,
			Kakasi:       defaultKakasiBinary,
		},
		Download: Download{
			StallTimeoutSeconds:  defaultStallTimeoutSeconds,
			WatchdogPollSeconds:  defaultWatchdogPollSeconds,
			SocketTimeoutSeconds: defaultSocketTimeoutSeconds,
			Retries:              defaultDownloadRetries,
			FragmentRetries:      defaultFragmentRetries,
			ConcurrentFragments:  defaultConcurrentFragments,
			HTTPChunkSizeBytes:   defaultHTTPChunkSizeBytes,
		},
		Audio: Audio{
			TranscodeTimeoutSeconds: defaultTranscodeTimeoutSeconds,
			CacheMaxAgeHours:        defaultCacheMaxAgeHours,
			CacheMinSizeKB:          defaultCacheMinSizeKB,
			MinDurationSeconds:      defaultMinDurationSeconds,
			LoudnessTargetLUFS:      defaultLoudnessTargetLUFS,
			TruePeakDB:              defaultTruePeakDB,
			LoudnessRange:           defaultLoudnessRange,
			GainBoostDB:             defaultGainBoostDB,
			SilenceNoiseDB:          defaultSilenceNoiseDB,
			SilenceMinSeconds:       defaultSilenceMinSeconds,
			ChunkWindowSeconds:      defaultChunkWindowSeconds,
			ChunkMinRegionSeconds:   defaultChunkMinRegionSeconds,
			ChunkOverlapSeconds:     defaultChunkOverlapSeconds,
		},
		Whisper: Whisper{
			Model:                     defaultWhisperModel,
			Device:                    defaultWhisperDevice,
			BeamSize:                  defaultBeamSize,
			BestOf:                    defaultBestOf,
			NoSpeechThresholdPlain:    defaultNoSpeechThresholdPlain,
			NoSpeechThresholdVAD:      defaultNoSpeechThresholdVAD,
			LogProbThreshold:          defaultLogProbThreshold,
			CompressionRatioThreshold: defaultCompressionRatioThreshold,
			Temperatures:              []float64{0, 0.2, 0.4, 0.6},
			VADMinSilenceMS:           defaultVADMinSilenceMS,
		},
		Lyrics: Lyrics{
			BaseURL:        defaultLyricsBaseURL,
			Model:          defaultLyricsModel,
			TimeoutSeconds: defaultLyricsTimeoutSeconds,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
