package config

import "eventbatch/internal/timeline"

const (
	defaultOutputBase    = "~/Videos/eventbatch/"
	defaultLogDir        = "~/.local/state/eventbatch/logs"
	defaultPresetFile    = "PresetList.txt"
	defaultRenderMode    = "events"
	defaultStartNumber   = "00001"
	defaultCommandFile   = "BatchEncodeEvents.bat"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultRetentionDays = 30

	// OutputBaseEnv overrides an unset paths.output_base.
	OutputBaseEnv = "EVENTBATCH_OUTPUT_BASE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Render: Render{
			Mode:        defaultRenderMode,
			StartNumber: defaultStartNumber,
			MediaKind:   string(timeline.MediaVideo),
			FrameRate:   timeline.DefaultFrameRate,
			CommandFile: defaultCommandFile,
		},
		Templates: defaultTemplates(),
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}

func defaultTemplates() []Template {
	return []Template{
		{
			Renderer:  "ffmpeg",
			Name:      "ProRes 422 HQ",
			Extension: ".mov",
			Args:      []string{"-c:v", "prores_ks", "-profile:v", "3", "-pix_fmt", "yuv422p10le", "-c:a", "pcm_s16le"},
		},
		{
			Renderer:  "ffmpeg",
			Name:      "H.264 Review",
			Extension: ".mp4",
			Args:      []string{"-c:v", "libx264", "-crf", "18", "-preset", "medium", "-c:a", "aac", "-b:a", "192k"},
		},
		{
			Renderer:  "drapto",
			Name:      "AV1 Archive",
			Extension: ".mkv",
		},
	}
}
