// Package portal drives a real Chromium page with playwright.
package portal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/landscout/internal/scraper"
	"github.com/playwright-community/playwright-go"
)

// Options configures the browser.
type Options struct {
	Headless bool
	// Timeout bounds navigation and element actions. Zero keeps playwright's default.
	Timeout time.Duration
}

// Session owns the playwright driver, one browser and one page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	log     *slog.Logger
}

var _ scraper.Page = (*Session)(nil)

// Launch starts playwright and opens a blank Chromium page.
func Launch(ctx context.Context, opts Options, log *slog.Logger) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if opts.Timeout > 0 {
		page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
		page.SetDefaultNavigationTimeout(float64(opts.Timeout.Milliseconds()))
	}

	log.InfoContext(ctx, "Browser launched", "headless", opts.Headless)

	return &Session{pw: pw, browser: browser, page: page, log: log}, nil
}

// Install downloads the Chromium build playwright needs.
func Install() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

// Close shuts down the browser and the playwright driver.
func (s *Session) Close() error {
	if err := s.browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}

	return s.pw.Stop()
}

func (s *Session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.DebugContext(ctx, "Navigating", "url", url)
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})

	return err
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (s *Session) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return s.page.Content()
}

func (s *Session) Select(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Locator(selector).SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})

	return err
}

func (s *Session) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	input := s.page.Locator(selector)
	if _, err := input.Evaluate("el => el.removeAttribute('readonly')", nil); err != nil {
		return fmt.Errorf("failed to make %s writable: %w", selector, err)
	}

	return input.Fill(value)
}

func (s *Session) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.page.Locator(selector).First().Click()
}

func (s *Session) Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
