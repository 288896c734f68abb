package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"boardcheck/internal/config"
	"boardcheck/internal/driver"
)

// Engine selectors accepted by the factories.
const (
	BrowserChrome   = "chrome"
	BrowserChromium = "chromium"
	BrowserEdge     = "edge"
	BrowserFirefox  = "firefox"

	// PlatformAndroid is the only mobile selector.
	PlatformAndroid = "android"

	// MobileImplicitWait is applied to every Appium session.
	MobileImplicitWait = 2 * time.Second
)

// WebFactory builds browser sessions. Chrome and Edge run through the
// DevTools protocol; Firefox goes through a WebDriver remote.
func WebFactory(cfg *config.Config) Factory {
	return func(ctx context.Context, selector string) (driver.Driver, error) {
		width := cfg.Int(config.KeyBrowserWidth, 1920)
		height := cfg.Int(config.KeyBrowserHeight, 1080)
		headless := cfg.Bool(config.KeyBrowserHeadless, false)

		switch strings.ToLower(selector) {
		case BrowserChrome, BrowserChromium, "":
			return driver.LaunchChromium(ctx, driver.ChromiumOptions{
				Bin:      cfg.GetOr(config.KeyBrowserBinary, ""),
				Headless: headless,
				Width:    width,
				Height:   height,
			})
		case BrowserEdge:
			bin := cfg.GetOr(config.KeyBrowserBinary, "")
			if bin == "" {
				return nil, fmt.Errorf("browser edge requires %s", config.KeyBrowserBinary)
			}
			return driver.LaunchChromium(ctx, driver.ChromiumOptions{
				Bin:      bin,
				Headless: headless,
				Width:    width,
				Height:   height,
			})
		case BrowserFirefox:
			return driver.ConnectRemote(driver.RemoteOptions{
				URL:          cfg.GetOr(config.KeyBrowserRemoteURL, "http://127.0.0.1:4444"),
				Capabilities: FirefoxCapabilities(headless),
				Width:        width,
				Height:       height,
			})
		default:
			return nil, fmt.Errorf("unsupported browser %q", selector)
		}
	}
}

// MobileFactory builds Appium sessions against the Trello Android app.
func MobileFactory(cfg *config.Config) Factory {
	return func(ctx context.Context, selector string) (driver.Driver, error) {
		if selector != "" && !strings.EqualFold(selector, PlatformAndroid) {
			return nil, fmt.Errorf("unsupported mobile platform %q", selector)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return driver.ConnectRemote(driver.RemoteOptions{
			URL:          cfg.GetOr(config.KeyAppiumURL, "http://127.0.0.1:4723"),
			Capabilities: MobileCapabilities(cfg),
			ImplicitWait: MobileImplicitWait,
		})
	}
}

// MobileCapabilities returns the Appium capabilities for the configured device.
func MobileCapabilities(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"platformName":          "Android",
		"appium:automationName": "UiAutomator2",
		"appium:deviceName":     cfg.GetOr(config.KeyDeviceName, "AndroidDevice"),
		"appium:noReset":        true,
		"appium:appPackage":     cfg.GetOr(config.KeyAppPackage, "com.trello"),
		"appium:appActivity":    cfg.GetOr(config.KeyAppActivity, "com.trello.home.HomeActivity"),
	}
}

// FirefoxCapabilities builds the W3C capabilities for a geckodriver session.
func FirefoxCapabilities(headless bool) map[string]interface{} {
	caps := map[string]interface{}{"browserName": BrowserFirefox}
	if headless {
		caps["moz:firefoxOptions"] = map[string]interface{}{"args": []string{"-headless"}}
	}
	return caps
}
