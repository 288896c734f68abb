// Package drivertest provides an in-memory driver.Driver for tests.
package drivertest

import (
	"context"
	"errors"
	"sync"

	"boardcheck/internal/driver"
)

// ErrClosed is returned by every call made after Close.
var ErrClosed = errors.New("fake driver closed")

// Driver is a scripted driver.Driver. Elements are registered per locator
// and may be set to appear only after a number of lookups, which lets wait
// loops be exercised without a browser.
type Driver struct {
	mu sync.Mutex

	engine      string
	elements    map[driver.Locator][]*Element
	pending     map[driver.Locator]pending
	finds       map[driver.Locator]int
	navigations []string
	closeCount  int

	screenshot    []byte
	screenshotErr error
	findErr       error
	closeErr      error
}

type pending struct {
	after int
	els   []*Element
}

// New returns an empty fake that reports itself as engine "fake".
func New() *Driver {
	return &Driver{
		engine:     "fake",
		elements:   make(map[driver.Locator][]*Element),
		pending:    make(map[driver.Locator]pending),
		finds:      make(map[driver.Locator]int),
		screenshot: []byte("\x89PNG fake"),
	}
}

// Set registers the elements returned for loc.
func (d *Driver) Set(loc driver.Locator, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[loc] = els
	delete(d.pending, loc)
}

// AppearAfter makes els visible for loc once loc has been looked up n times.
func (d *Driver) AppearAfter(loc driver.Locator, n int, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[loc] = pending{after: n, els: els}
}

// SetScreenshot sets what Screenshot returns.
func (d *Driver) SetScreenshot(data []byte, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screenshot, d.screenshotErr = data, err
}

// FailFinds makes every lookup return err.
func (d *Driver) FailFinds(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findErr = err
}

// FailClose makes Close return err. The driver still counts as closed.
func (d *Driver) FailClose(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeErr = err
}

// Navigations lists the URLs navigated to, in order.
func (d *Driver) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigations...)
}

// Lookups reports how many times loc was searched for.
func (d *Driver) Lookups(loc driver.Locator) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finds[loc]
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCount > 0
}

// CloseCount reports how many times Close was called.
func (d *Driver) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCount
}

func (d *Driver) Engine() string { return d.engine }

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closeCount > 0 {
		return ErrClosed
	}
	d.navigations = append(d.navigations, url)
	return nil
}

func (d *Driver) FindAll(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closeCount > 0 {
		return nil, ErrClosed
	}
	if d.findErr != nil {
		return nil, d.findErr
	}
	d.finds[loc]++
	if p, ok := d.pending[loc]; ok && d.finds[loc] > p.after {
		d.elements[loc] = p.els
		delete(d.pending, loc)
	}
	return toElements(d.elements[loc]), nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closeCount > 0 {
		return nil, ErrClosed
	}
	if d.screenshotErr != nil {
		return nil, d.screenshotErr
	}
	return append([]byte(nil), d.screenshot...), nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCount++
	return d.closeErr
}

// Element is a scripted driver.Element.
type Element struct {
	mu sync.Mutex

	text     string
	hidden   bool
	clicks   int
	typed    []string
	children map[driver.Locator][]*Element
	onClick  func()
	clickErr error
}

// NewElement returns a displayed element with the given text.
func NewElement(text string) *Element {
	return &Element{text: text, children: make(map[driver.Locator][]*Element)}
}

// Hidden marks the element as present but not displayed.
func (e *Element) Hidden() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = true
	return e
}

// WithChildren registers elements found below e for loc.
func (e *Element) WithChildren(loc driver.Locator, els ...*Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children[loc] = els
	return e
}

// OnClick runs fn on every click.
func (e *Element) OnClick(fn func()) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onClick = fn
	return e
}

// FailClick makes every click return err.
func (e *Element) FailClick(err error) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clickErr = err
	return e
}

// SetDisplayed shows or hides the element.
func (e *Element) SetDisplayed(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = !v
}

// Clicks reports how many times the element was clicked.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Typed lists the text sent to the element.
func (e *Element) Typed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.typed...)
}

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

func (e *Element) Click() error {
	e.mu.Lock()
	if e.clickErr != nil {
		err := e.clickErr
		e.mu.Unlock()
		return err
	}
	e.clicks++
	fn := e.onClick
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (e *Element) Type(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typed = append(e.typed, text)
	return nil
}

func (e *Element) Displayed() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.hidden, nil
}

func (e *Element) FindAll(loc driver.Locator) ([]driver.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return toElements(e.children[loc]), nil
}

func toElements(els []*Element) []driver.Element {
	out := make([]driver.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out
}
