package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ChromiumOptions configures LaunchChromium.
type ChromiumOptions struct {
	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string
	// Bin is the browser executable. Empty uses the launcher's lookup, which
	// finds or downloads Chromium.
	Bin      string
	Headless bool
	Width    int
	Height   int
}

// RodDriver drives a Chromium-family browser page through go-rod.
type RodDriver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// LaunchChromium starts (or attaches to) a browser and opens a blank page
// sized to the configured viewport.
func LaunchChromium(ctx context.Context, opts ChromiumOptions) (*RodDriver, error) {
	d := &RodDriver{}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		d.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		d.killLauncher()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	d.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	d.page = page

	if opts.Width > 0 && opts.Height > 0 {
		if err := (proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		}).Call(page); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}
	return d, nil
}

func (d *RodDriver) Engine() string { return "rod" }

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return p.WaitLoad()
}

func (d *RodDriver) FindAll(ctx context.Context, loc Locator) ([]Element, error) {
	p := d.page.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	switch loc.By {
	case ByXPath:
		els, err = p.ElementsX(loc.Value)
	default:
		sel, cerr := cssFor(loc)
		if cerr != nil {
			return nil, cerr
		}
		els, err = p.Elements(sel)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	return wrapRod(els), nil
}

func (d *RodDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.page.Context(ctx).Screenshot(false, nil)
}

func (d *RodDriver) Close() error {
	var err error
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	d.killLauncher()
	return err
}

func (d *RodDriver) killLauncher() {
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher = nil
	}
}

// cssFor maps WebDriver strategies onto CSS where an equivalent exists.
func cssFor(loc Locator) (string, error) {
	switch loc.By {
	case ByCSS:
		return loc.Value, nil
	case ByID:
		return fmt.Sprintf(`[id="%s"]`, strings.ReplaceAll(loc.Value, `"`, `\"`)), nil
	case ByClassName:
		return "." + loc.Value, nil
	default:
		return "", fmt.Errorf("%s: %w", loc, ErrUnsupportedLocator)
	}
}

type rodElement struct {
	el *rod.Element
}

func wrapRod(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}

func (e *rodElement) Text() (string, error) { return e.el.Text() }

func (e *rodElement) Click() error { return e.el.Click(proto.InputMouseButtonLeft, 1) }

func (e *rodElement) Type(text string) error { return e.el.Input(text) }

func (e *rodElement) Displayed() (bool, error) { return e.el.Visible() }

func (e *rodElement) FindAll(loc Locator) ([]Element, error) {
	var (
		els rod.Elements
		err error
	)
	if loc.By == ByXPath {
		els, err = e.el.ElementsX(loc.Value)
	} else {
		sel, cerr := cssFor(loc)
		if cerr != nil {
			return nil, cerr
		}
		els, err = e.el.Elements(sel)
	}
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}
