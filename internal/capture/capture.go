// Package capture saves a screenshot of the active session when a
// scenario fails.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"boardcheck/internal/driver"
	"boardcheck/internal/session"
	"boardcheck/pkg/logging"
)

// DefaultDir is used when no screenshot directory is configured.
const DefaultDir = "screenshots"

// TimestampLayout is the file name timestamp, e.g. 20240131_154502.
const TimestampLayout = "20060102_150405"

// ErrNoActiveSession means neither a web nor a mobile session was open.
var ErrNoActiveSession = errors.New("no active web or mobile session")

// CaptureError wraps any failure to produce a screenshot.
type CaptureError struct {
	TestName string
	Err      error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("failed to capture screenshot for test %s: %v", e.TestName, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Source resolves the session to photograph. *session.Set implements it.
type Source interface {
	Active() (driver.Driver, session.Channel, bool)
}

// Capturer writes screenshots to Dir.
type Capturer struct {
	Dir string
	Now func() time.Time
}

// New returns a Capturer writing to dir, or to the default directory when
// dir is empty.
func New(dir string) *Capturer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Capturer{Dir: dir, Now: time.Now}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName builds "<test>_<timestamp>.png" with path-unsafe characters
// replaced.
func FileName(testName string, at time.Time) string {
	name := unsafeChars.ReplaceAllString(testName, "_")
	if name == "" {
		name = "unnamed"
	}
	return name + "_" + at.Format(TimestampLayout) + ".png"
}

// Capture photographs the active session, web first, and returns the path
// of the written file.
func (c *Capturer) Capture(ctx context.Context, testName string, src Source) (string, error) {
	drv, channel, ok := src.Active()
	if !ok {
		return "", &CaptureError{TestName: testName, Err: ErrNoActiveSession}
	}

	data, err := drv.Screenshot(ctx)
	if err != nil {
		return "", &CaptureError{TestName: testName, Err: fmt.Errorf("take %s screenshot: %w", channel, err)}
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", &CaptureError{TestName: testName, Err: err}
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	path := filepath.Join(c.Dir, FileName(testName, now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &CaptureError{TestName: testName, Err: err}
	}

	if abs, err := filepath.Abs(path); err == nil {
		logging.Info("Capture", "Screenshot saved at: %s", abs)
	}
	return path, nil
}

// OnFailure is the failure hook. Capture errors are logged and swallowed so
// they never replace the failure being reported. It returns the screenshot
// path, or "" when none was written.
func (c *Capturer) OnFailure(ctx context.Context, testName string, src Source) string {
	logging.Warn("Capture", "Test failed: %s", testName)
	path, err := c.Capture(ctx, testName, src)
	if err != nil {
		logging.Error("Capture", err, "Screenshot capture failed but test execution continues")
		return ""
	}
	return path
}
