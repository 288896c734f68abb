package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/tebeka/selenium"
)

// RemoteOptions configures ConnectRemote.
type RemoteOptions struct {
	// URL is the WebDriver endpoint, e.g. an Appium server or geckodriver.
	URL          string
	Capabilities map[string]interface{}
	ImplicitWait time.Duration
	// Width and Height resize the window when both are set. Device sessions
	// leave them zero.
	Width  int
	Height int
}

// RemoteDriver drives a WebDriver session.
type RemoteDriver struct {
	wd selenium.WebDriver
}

// ConnectRemote opens a new WebDriver session.
func ConnectRemote(opts RemoteOptions) (*RemoteDriver, error) {
	wd, err := selenium.NewRemote(selenium.Capabilities(opts.Capabilities), opts.URL)
	if err != nil {
		return nil, fmt.Errorf("open session at %s: %w", opts.URL, err)
	}
	if opts.ImplicitWait > 0 {
		if err := wd.SetImplicitWaitTimeout(opts.ImplicitWait); err != nil {
			_ = wd.Quit()
			return nil, fmt.Errorf("set implicit wait: %w", err)
		}
	}
	if opts.Width > 0 && opts.Height > 0 {
		if err := wd.ResizeWindow("", opts.Width, opts.Height); err != nil {
			_ = wd.Quit()
			return nil, fmt.Errorf("resize window: %w", err)
		}
	}
	return &RemoteDriver{wd: wd}, nil
}

func (d *RemoteDriver) Engine() string { return "webdriver" }

// SessionID returns the server-side session id.
func (d *RemoteDriver) SessionID() string { return d.wd.SessionID() }

func (d *RemoteDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.wd.Get(url)
}

func (d *RemoteDriver) FindAll(ctx context.Context, loc Locator) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els, err := d.wd.FindElements(string(loc.By), loc.Value)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	return wrapRemote(els), nil
}

func (d *RemoteDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.wd.Screenshot()
}

func (d *RemoteDriver) Close() error {
	return d.wd.Quit()
}

type remoteElement struct {
	el selenium.WebElement
}

func wrapRemote(els []selenium.WebElement) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &remoteElement{el: el})
	}
	return out
}

func (e *remoteElement) Text() (string, error) { return e.el.Text() }

func (e *remoteElement) Click() error { return e.el.Click() }

func (e *remoteElement) Type(text string) error { return e.el.SendKeys(text) }

func (e *remoteElement) Displayed() (bool, error) { return e.el.IsDisplayed() }

func (e *remoteElement) FindAll(loc Locator) ([]Element, error) {
	els, err := e.el.FindElements(string(loc.By), loc.Value)
	if err != nil {
		return nil, err
	}
	return wrapRemote(els), nil
}
