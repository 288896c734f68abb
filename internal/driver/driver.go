// Package driver abstracts the remote-control connections used by the
// suite: a Chromium browser over the DevTools protocol (go-rod) and any
// WebDriver endpoint, which covers Appium and Firefox via geckodriver.
//
// Page objects only see Driver and Element, so the same wait and click
// primitives work for a desktop browser and an Android device.
package driver

import (
	"context"
	"errors"
	"fmt"
)

// Strategy is a WebDriver locator strategy.
type Strategy string

const (
	ByCSS             Strategy = "css selector"
	ByID              Strategy = "id"
	ByXPath           Strategy = "xpath"
	ByClassName       Strategy = "class name"
	ByUIAutomator     Strategy = "-android uiautomator"
	ByAccessibilityID Strategy = "accessibility id"
)

// ErrUnsupportedLocator is returned when an engine cannot evaluate a strategy,
// e.g. a UiAutomator selector sent to a desktop browser.
var ErrUnsupportedLocator = errors.New("locator strategy not supported by this driver")

// Locator identifies elements on a rendered surface.
type Locator struct {
	By    Strategy
	Value string
}

// String renders the locator as strategy=value for logs and errors.
func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// CSS locates elements by CSS selector.
func CSS(selector string) Locator { return Locator{By: ByCSS, Value: selector} }

// ID locates an element by its id attribute, or its resource id on Android.
func ID(id string) Locator { return Locator{By: ByID, Value: id} }

// XPath locates elements by XPath expression.
func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

// ClassName locates elements by class, which on Android is the widget class.
func ClassName(name string) Locator { return Locator{By: ByClassName, Value: name} }

// UIAutomator locates Android elements with a UiSelector expression.
// Only Appium sessions accept it.
func UIAutomator(expr string) Locator { return Locator{By: ByUIAutomator, Value: expr} }

// AccessibilityID locates elements by content description.
func AccessibilityID(id string) Locator { return Locator{By: ByAccessibilityID, Value: id} }

// Element is a single rendered node.
type Element interface {
	Text() (string, error)
	Click() error
	Type(text string) error
	Displayed() (bool, error)
	// FindAll searches below this element.
	FindAll(loc Locator) ([]Element, error)
}

// Driver is an open browser page or device session.
type Driver interface {
	// Engine names the backend, e.g. "rod" or "webdriver".
	Engine() string
	Navigate(ctx context.Context, url string) error
	// FindAll returns the matching elements without waiting; an empty result
	// is not an error.
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}
