// Package launch maps resolved instances onto playwright-go launch options and
// starts the matching browser.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/goliatone/go-browser-opts/browser"
)

var (
	// ErrProviderMismatch indicates an instance resolved for another provider.
	ErrProviderMismatch = errors.New("launch: instance is not a playwright instance")
	// ErrUnknownBrowserType indicates a browser playwright has no type for.
	ErrUnknownBrowserType = errors.New("launch: unknown playwright browser type")
)

// LaunchOptions builds the options passed to BrowserType.Launch.
func LaunchOptions(effective browser.Effective) playwright.BrowserTypeLaunchOptions {
	options := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(effective.Headless),
		SlowMo:   effective.Launch.SlowMo,
		Timeout:  effective.Launch.Timeout,
	}
	if len(effective.Launch.Args) > 0 {
		options.Args = append([]string(nil), effective.Launch.Args...)
	}
	if effective.Launch.Channel != "" {
		options.Channel = playwright.String(effective.Launch.Channel)
	}
	return options
}

// ContextOptions builds the options passed to Browser.NewContext.
func ContextOptions(effective browser.Effective) playwright.BrowserNewContextOptions {
	return playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  effective.Viewport.Width,
			Height: effective.Viewport.Height,
		},
	}
}

// Session is a running browser with one context.
type Session struct {
	Instance browser.Effective
	Browser  playwright.Browser
	Context  playwright.BrowserContext

	pw *playwright.Playwright
}

// Close tears down the context, the browser and the driver.
func (s *Session) Close() error {
	var errs []error
	if s.Context != nil {
		if err := s.Context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Launcher starts playwright browsers for resolved instances.
type Launcher struct {
	logger *slog.Logger
}

// NewLauncher builds a Launcher. Nil logger discards.
func NewLauncher(logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Launcher{logger: logger.With("component", "launch")}
}

// Launch starts the driver, the browser and a context for effective.
func (l *Launcher) Launch(ctx context.Context, effective browser.Effective) (*Session, error) {
	if err := Check(effective); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("launch: start playwright: %w", err)
	}
	browserType := browserTypeOf(pw, effective.Browser)
	instance, err := browserType.Launch(LaunchOptions(effective))
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch: %s: %w", effective.Name, err)
	}
	browserContext, err := instance.NewContext(ContextOptions(effective))
	if err != nil {
		_ = instance.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("launch: %s: new context: %w", effective.Name, err)
	}

	l.logger.Info("browser launched",
		"instance", effective.Name,
		"browser", effective.Browser,
		"headless", effective.Headless,
		"version", instance.Version(),
	)
	return &Session{Instance: effective, Browser: instance, Context: browserContext, pw: pw}, nil
}

// Check reports whether effective can be launched through playwright.
func Check(effective browser.Effective) error {
	if effective.Provider != browser.ProviderPlaywright {
		return fmt.Errorf("%w: %s uses %q", ErrProviderMismatch, effective.Name, effective.Provider)
	}
	switch effective.Browser {
	case "chromium", "firefox", "webkit":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBrowserType, effective.Browser)
	}
}

func browserTypeOf(pw *playwright.Playwright, name string) playwright.BrowserType {
	switch name {
	case "firefox":
		return pw.Firefox
	case "webkit":
		return pw.WebKit
	default:
		return pw.Chromium
	}
}
