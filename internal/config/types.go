package config

import "time"

// Recognised settings keys.
const (
	KeyBaseURL  = "trello.baseUrl"
	KeyAPIKey   = "trello.key"
	KeyToken    = "trello.token"
	KeyUsername = "trello.username"
	KeyPassword = "trello.password"
	KeyHomeURL  = "trello.homeUrl"

	KeyBrowser          = "browser"
	KeyBrowserHeadless  = "browser.headless"
	KeyBrowserBinary    = "browser.binary"
	KeyBrowserRemoteURL = "browser.remoteUrl"
	KeyBrowserWidth     = "browser.width"
	KeyBrowserHeight    = "browser.height"

	KeyAppiumURL   = "mobile.appiumUrl"
	KeyDeviceName  = "mobile.deviceName"
	KeyAppPackage  = "mobile.appPackage"
	KeyAppActivity = "mobile.appActivity"

	KeyWaitTimeout       = "wait.timeout"
	KeyWaitMobileTimeout = "wait.mobileTimeout"
	KeyWaitPollInterval  = "wait.pollInterval"

	KeyScreenshotsDir = "screenshots.dir"
)

// CIEnvVar is the execution-environment flag that enables environment
// variable overrides.
const CIEnvVar = "CI"

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "boardcheck.yaml"

// Defaults applied when neither the file nor the environment provide a value.
var defaults = map[string]string{
	KeyBaseURL:           "https://api.trello.com",
	KeyHomeURL:           "https://trello.com/home",
	KeyBrowser:           "chrome",
	KeyBrowserHeadless:   "false",
	KeyBrowserRemoteURL:  "http://127.0.0.1:4444",
	KeyBrowserWidth:      "1920",
	KeyBrowserHeight:     "1080",
	KeyAppiumURL:         "http://127.0.0.1:4723",
	KeyDeviceName:        "AndroidDevice",
	KeyAppPackage:        "com.trello",
	KeyAppActivity:       "com.trello.home.HomeActivity",
	KeyWaitTimeout:       "10s",
	KeyWaitMobileTimeout: "20s",
	KeyWaitPollInterval:  "250ms",
	KeyScreenshotsDir:    "screenshots",
}

// LoadOptions controls how Load builds a Config.
type LoadOptions struct {
	// Path is the YAML settings file. Empty means DefaultFileName.
	Path string
	// EnvFile is an optional dotenv file loaded into the process environment
	// before resolution. A missing file is ignored.
	EnvFile string
	// BrowserOverride is the per-run browser selector, highest precedence.
	BrowserOverride string
	// LookupEnv replaces os.LookupEnv, mainly for tests.
	LookupEnv func(string) (string, bool)
}

// Config is the resolved, read-only settings table. It is built once by Load
// and shared by reference between scenario workers.
type Config struct {
	path            string
	values          map[string]string
	env             map[string]string
	lookupEnv       func(string) (string, bool)
	ciMode          bool
	browserOverride string
}

// WaitSettings groups the element wait budgets.
type WaitSettings struct {
	Timeout       time.Duration
	MobileTimeout time.Duration
	PollInterval  time.Duration
}
