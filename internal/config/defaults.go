package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			ClipLibraryDir: "~/.local/share/signcast/clips",
			TempDir:        "~/.local/share/signcast/temp",
			MediaDir:       "~/.local/share/signcast/media",
			LogDir:         "~/.local/share/signcast/logs",
			APIBind:        "127.0.0.1:7717",
		},
		Media: Media{
			OutputWidth:     1280,
			OutputHeight:    720,
			OutputFrameRate: 30,
			ConcatTimeout:   300,
			ProbeTimeout:    30,
		},
		Translation: Translation{
			Enabled:         false,
			TimeoutSeconds:  20,
			TargetLanguages: []string{"hi", "mr", "gu"},
		},
		Resolver: Resolver{
			MaxPhraseWords: 3,
		},
		Artifacts: Artifacts{
			RetentionHours: 24,
			SweepSchedule:  "@every 1h",
		},
		Workflow: Workflow{
			QueuePollInterval:  2,
			ErrorRetryInterval: 5,
			WorkerCount:        2,
			StaleJobTimeout:    600,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
