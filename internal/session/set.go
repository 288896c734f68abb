package session

import (
	"context"
	"errors"
	"fmt"

	"boardcheck/internal/config"
	"boardcheck/internal/driver"
)

// Set holds the web and mobile managers of one scenario worker.
type Set struct {
	Web    *Manager
	Mobile *Manager
}

// NewSet wires both managers to the configured factories.
func NewSet(cfg *config.Config) *Set {
	return NewSetWith(WebFactory(cfg), MobileFactory(cfg), cfg.Browser())
}

// NewSetWith builds a set from explicit factories.
func NewSetWith(web, mobile Factory, defaultBrowser string) *Set {
	return &Set{
		Web:    NewManager(ChannelWeb, web, defaultBrowser),
		Mobile: NewManager(ChannelMobile, mobile, PlatformAndroid),
	}
}

// Manager returns the manager for ch, or nil for an unknown channel.
func (s *Set) Manager(ch Channel) *Manager {
	switch ch {
	case ChannelWeb:
		return s.Web
	case ChannelMobile:
		return s.Mobile
	default:
		return nil
	}
}

// Init starts the session for ch.
func (s *Set) Init(ctx context.Context, ch Channel, selector string) error {
	m := s.Manager(ch)
	if m == nil {
		return fmt.Errorf("unknown channel %q", ch)
	}
	return m.Init(ctx, selector)
}

// Active returns the web handle if one is held, otherwise the mobile one.
func (s *Set) Active() (driver.Driver, Channel, bool) {
	if drv, ok := s.Web.Driver(); ok {
		return drv, ChannelWeb, true
	}
	if drv, ok := s.Mobile.Driver(); ok {
		return drv, ChannelMobile, true
	}
	return nil, "", false
}

// QuitAll closes both sessions and joins their errors.
func (s *Set) QuitAll() error {
	return errors.Join(s.Web.Quit(), s.Mobile.Quit())
}
