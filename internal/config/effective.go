package config

// BuildEffectiveConfig applies raw over DefaultConfig. extend_* lists are
// appended after any replacement of the same list.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.RefreshInterval != nil {
		cfg.RefreshInterval = *raw.RefreshInterval
	}
	if raw.DragThreshold != nil {
		cfg.DragThreshold = *raw.DragThreshold
	}

	if r := raw.Rules; r != nil {
		cfg.Rules.SystemPrefixes = replaceThenExtend(cfg.Rules.SystemPrefixes, r.SystemPrefixes, r.ExtendSystemPrefixes)
		cfg.Rules.HardExclusions = replaceThenExtend(cfg.Rules.HardExclusions, r.HardExclusions, r.ExtendHardExclusions)
		cfg.Rules.HelperPatterns = replaceThenExtend(cfg.Rules.HelperPatterns, r.HelperPatterns, r.ExtendHelperPatterns)
		cfg.Rules.ImportantOverrides = replaceThenExtend(cfg.Rules.ImportantOverrides, r.ImportantOverrides, r.ExtendImportantOverrides)
		if r.RequireIcon != nil {
			cfg.Rules.RequireIcon = *r.RequireIcon
		}
	}
	cfg.Priority = replaceThenExtend(cfg.Priority, raw.Priority, raw.ExtendPriority)
	if raw.LowPriorityKeywords != nil {
		cfg.LowPriorityKeywords = raw.LowPriorityKeywords
	}

	if raw.Activation != nil && raw.Activation.AttemptTimeout != nil {
		cfg.Activation.AttemptTimeout = *raw.Activation.AttemptTimeout
	}
	if rs := raw.Restart; rs != nil {
		if rs.TerminateWait != nil {
			cfg.Restart.TerminateWait = *rs.TerminateWait
		}
		if rs.ExitPollInterval != nil {
			cfg.Restart.ExitPollInterval = *rs.ExitPollInterval
		}
		if rs.Spacing != nil {
			cfg.Restart.Spacing = *rs.Spacing
		}
	}
	if raw.Logging != nil && raw.Logging.Level != nil {
		cfg.Logging.Level = *raw.Logging.Level
	}
	if h := raw.History; h != nil {
		if h.Enabled != nil {
			cfg.History.Enabled = *h.Enabled
		}
		if h.Path != nil {
			cfg.History.Path = *h.Path
		}
	}
	if raw.Metrics != nil && raw.Metrics.Listen != nil {
		cfg.Metrics.Listen = *raw.Metrics.Listen
	}
	if hk := raw.Hotkeys; hk != nil {
		if hk.Refresh != nil {
			cfg.Hotkeys.Refresh = *hk.Refresh
		}
		if hk.Palette != nil {
			cfg.Hotkeys.Palette = *hk.Palette
		}
	}
	if raw.Palette != nil && raw.Palette.Backend != nil {
		cfg.Palette.Backend = *raw.Palette.Backend
	}
	if raw.HostHintCommand != nil {
		cfg.HostHintCommand = *raw.HostHintCommand
	}

	return cfg
}

func replaceThenExtend(defaults, replace, extend []string) []string {
	out := defaults
	if replace != nil {
		out = append([]string(nil), replace...)
	}
	return appendUnique(out, extend)
}
