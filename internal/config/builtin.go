package config

// Built-in classification and ordering lists. User config either replaces a
// list or, through the extend_* keys, appends to it.

// BuiltinSystemPrefixes are identity prefixes reserved for the desktop's own
// components.
func BuiltinSystemPrefixes() []string {
	return []string{
		"org.freedesktop.",
		"org.gnome.Shell",
		"org.kde.plasma",
		"com.apple.",
	}
}

// BuiltinHardExclusions are identities or names never managed, whatever the
// other rules say. barkeep itself is always first.
func BuiltinHardExclusions() []string {
	return []string{
		"barkeep",
		"com.menubarmanager.app",
		"MenuBarManager",
		// browsers
		"firefox",
		"chromium",
		"google-chrome",
		"brave-browser",
		"com.google.Chrome",
		"org.mozilla.firefox",
		"com.apple.Safari",
		// input methods
		"fcitx",
		"fcitx5",
		"ibus",
		"ibus-ui-gtk3",
		"com.sogou.inputmethod",
		"com.tencent.inputmethod.wetype",
		// chat and cloud storage clients that misbehave when restarted
		"com.tencent.xinWeChat",
		"wechat",
		"com.microsoft.OneDrive",
		"com.getdropbox.dropbox",
		"dropbox",
		"com.adobe.acc.AdobeCreativeCloud",
		"com.spotify.client",
		"spotify",
		"com.apple.Music",
		"com.apple.MobileSMS",
		"com.apple.FaceTime",
		"com.apple.dt.Xcode",
		"com.apple.iphonesimulator",
		"com.apple.ActivityMonitor",
		"com.apple.Console",
	}
}

// BuiltinHelperPatterns mark background helper processes.
func BuiltinHelperPatterns() []string {
	return []string{
		"helper",
		"renderer",
		"agent",
		"service",
		"daemon",
		"monitor",
		"extension",
		"plugin",
		"updater",
		"launcher",
		"notifier",
		"sync",
		"installer",
		"uninstaller",
		"小程序",
		"小助手",
		"助手",
		"输入法",
		"inputmethod",
	}
}

// BuiltinImportantOverrides waive the helper patterns for server-style tools
// whose tray icon is the main interface.
func BuiltinImportantOverrides() []string {
	return []string{
		"postgres",
		"docker",
		"database",
		"server",
		"mysql",
		"redis",
		"mongodb",
		"ollama",
		"nginx",
		"apache",
		"node",
		"python",
		"java",
		"git",
	}
}

// BuiltinPriority is the default display-name priority list.
func BuiltinPriority() []string {
	return []string{
		"Bartender",
		"Hidden Bar",
		"CleanMyMac",
		"1Blocker",
		"AdGuard",
		"Proxyman",
		"Charles",
		"ClashX",
		"Surge",
		"ShadowsocksX",
		"Docker",
		"Postgres",
		"Redis",
		"MongoDB",
		"Ollama",
		"Battery Health",
		"iStat Menus",
		"MenuMeters",
		"System Preferences",
	}
}

// BuiltinLowPriorityKeywords select hide suggestions.
func BuiltinLowPriorityKeywords() []string {
	return []string{
		"monitor",
		"stats",
		"meter",
		"temperature",
		"fan",
		"cpu",
		"memory",
		"download",
		"upload",
		"converter",
		"cleaner",
		"backup",
		"game",
		"entertainment",
		"music",
		"video",
		"photo",
	}
}
