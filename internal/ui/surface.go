package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"boardcheck/internal/config"
	"boardcheck/internal/driver"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 250 * time.Millisecond
)

// Observation is the outcome of a check that may legitimately fail.
type Observation int

const (
	NotObserved Observation = iota
	Observed
)

func (o Observation) String() string {
	if o == Observed {
		return "OBSERVED"
	}
	return "NOT_OBSERVED"
}

// ObservationOf converts a boolean check result.
func ObservationOf(seen bool) Observation {
	if seen {
		return Observed
	}
	return NotObserved
}

// WaitTimeoutError reports a wait that ran out of budget.
type WaitTimeoutError struct {
	What    string
	Timeout time.Duration
	// Last is the most recent lookup error seen while polling, if any.
	Last error
}

func (e *WaitTimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.What)
	if e.Last != nil {
		msg += fmt.Sprintf(" (last error: %v)", e.Last)
	}
	return msg
}

func (e *WaitTimeoutError) Unwrap() error { return e.Last }

// IsWaitTimeout reports whether err is or wraps a *WaitTimeoutError.
func IsWaitTimeout(err error) bool {
	var wte *WaitTimeoutError
	return errors.As(err, &wte)
}

// MatchesName compares a rendered label with an expected board name,
// ignoring surrounding whitespace and case.
func MatchesName(text, target string) bool {
	return strings.EqualFold(strings.TrimSpace(text), target)
}

// Surface is the wait-and-act capability page objects are built on.
type Surface struct {
	Driver   driver.Driver
	Timeout  time.Duration
	Interval time.Duration
}

// NewSurface returns a surface with the given wait budget. Zero values fall
// back to DefaultTimeout and DefaultInterval.
func NewSurface(drv driver.Driver, timeout, interval time.Duration) *Surface {
	return &Surface{Driver: drv, Timeout: timeout, Interval: interval}
}

// WebSurface uses the web wait budget from waits.
func WebSurface(drv driver.Driver, waits config.WaitSettings) *Surface {
	return NewSurface(drv, waits.Timeout, waits.PollInterval)
}

// MobileSurface uses the longer mobile wait budget from waits.
func MobileSurface(drv driver.Driver, waits config.WaitSettings) *Surface {
	return NewSurface(drv, waits.MobileTimeout, waits.PollInterval)
}

func (s *Surface) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

func (s *Surface) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

// Navigate loads url in the underlying session.
func (s *Surface) Navigate(ctx context.Context, url string) error {
	return s.Driver.Navigate(ctx, url)
}

// Poll evaluates cond until it reports true, the timeout elapses or ctx is
// done. A non-positive timeout uses the surface timeout. Errors returned by
// cond are treated as transient.
func (s *Surface) Poll(ctx context.Context, timeout time.Duration, cond func(context.Context) (bool, error)) error {
	return s.poll(ctx, "condition", timeout, cond)
}

func (s *Surface) poll(ctx context.Context, what string, timeout time.Duration, cond func(context.Context) (bool, error)) error {
	if timeout <= 0 {
		timeout = s.timeout()
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	var last error
	for {
		ok, err := cond(waitCtx)
		if err == nil && ok {
			return nil
		}
		if err != nil && waitCtx.Err() == nil {
			last = err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &WaitTimeoutError{What: what, Timeout: timeout, Last: last}
		case <-ticker.C:
		}
	}
}

// firstDisplayed returns the first displayed match for loc, or nil.
func (s *Surface) firstDisplayed(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	els, err := s.Driver.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		// A node that went stale between lookup and check counts as hidden.
		if shown, err := el.Displayed(); err == nil && shown {
			return el, nil
		}
	}
	return nil, nil
}

// WaitVisible waits until an element matching loc is displayed.
func (s *Surface) WaitVisible(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	return s.waitVisibleWithin(ctx, loc, s.timeout())
}

func (s *Surface) waitVisibleWithin(ctx context.Context, loc driver.Locator, timeout time.Duration) (driver.Element, error) {
	var found driver.Element
	err := s.poll(ctx, loc.String(), timeout, func(ctx context.Context) (bool, error) {
		el, err := s.firstDisplayed(ctx, loc)
		if err != nil {
			return false, err
		}
		found = el
		return el != nil, nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Click waits for loc to be displayed and clicks it.
func (s *Surface) Click(ctx context.Context, loc driver.Locator) error {
	el, err := s.WaitVisible(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// Type waits for loc to be displayed and sends text to it.
func (s *Surface) Type(ctx context.Context, loc driver.Locator, text string) error {
	el, err := s.WaitVisible(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Type(text); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// TextOf waits for loc and returns its trimmed text.
func (s *Surface) TextOf(ctx context.Context, loc driver.Locator) (string, error) {
	el, err := s.WaitVisible(ctx, loc)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", loc, err)
	}
	return strings.TrimSpace(text), nil
}

// Probe reports whether loc becomes visible within the surface timeout.
// It never fails: a timeout is NotObserved.
func (s *Surface) Probe(ctx context.Context, loc driver.Locator) Observation {
	return s.ProbeWithin(ctx, loc, s.timeout())
}

// ProbeWithin is Probe with an explicit budget.
func (s *Surface) ProbeWithin(ctx context.Context, loc driver.Locator, timeout time.Duration) Observation {
	_, err := s.waitVisibleWithin(ctx, loc, timeout)
	return ObservationOf(err == nil)
}

// FirstVisible waits until any of locs is displayed and returns its index.
func (s *Surface) FirstVisible(ctx context.Context, locs ...driver.Locator) (int, error) {
	names := make([]string, len(locs))
	for i, loc := range locs {
		names[i] = loc.String()
	}

	idx := -1
	err := s.poll(ctx, strings.Join(names, " or "), s.timeout(), func(ctx context.Context) (bool, error) {
		for i, loc := range locs {
			el, err := s.firstDisplayed(ctx, loc)
			if err != nil {
				return false, err
			}
			if el != nil {
				idx = i
				return true, nil
			}
		}
		return false, nil
	})
	return idx, err
}

// trimmedTexts collects the non-empty trimmed texts of els.
func trimmedTexts(els []driver.Element) []string {
	out := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func containsName(texts []string, target string) bool {
	for _, t := range texts {
		if MatchesName(t, target) {
			return true
		}
	}
	return false
}
