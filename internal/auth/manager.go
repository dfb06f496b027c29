package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/rabbitresearch/satirebot/internal/browser"
)

// Manager handles X.com authentication. Login opens a visible browser
// for the operator to sign in; the captured session cookies are reused
// by the primary source adapter afterwards.
type Manager struct {
	cookieStore *CookieStore
}

// NewManager creates a new auth manager.
func NewManager(cookieStore *CookieStore) *Manager {
	return &Manager{cookieStore: cookieStore}
}

// IsAuthenticated checks if valid stored credentials exist.
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid()
}

// Login opens a browser window for the operator to log in to X.com and
// stores the extracted cookies on success.
func (m *Manager) Login(ctx context.Context) error {
	opts := browser.Options(false) // headful so the operator can type

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	err := chromedp.Run(browserCtx,
		chromedp.Navigate("https://x.com/login"),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}

	if err := m.waitForLogin(browserCtx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cookies, err := m.extractCookies(browserCtx)
	if err != nil {
		return fmt.Errorf("failed to extract cookies: %w", err)
	}

	if err := m.cookieStore.Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}

	return nil
}

// waitForLogin polls until the operator has successfully logged in.
func (m *Manager) waitForLogin(ctx context.Context) error {
	timeout := time.After(5 * time.Minute)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("login timeout exceeded")
		case <-ticker.C:
			var url string
			if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
				continue
			}

			// Landing on the home feed indicates a completed login.
			if url == "https://x.com/home" || url == "https://twitter.com/home" {
				cookies, err := m.extractCookies(ctx)
				if err != nil {
					continue
				}
				for _, c := range cookies {
					if c.Name == "auth_token" && c.Value != "" {
						return nil
					}
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// extractCookies gets all cookies from the browser.
func (m *Manager) extractCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}

// Logout clears stored credentials.
func (m *Manager) Logout() error {
	return m.cookieStore.Clear()
}

// Cookies returns the stored session cookies for scraping.
func (m *Manager) Cookies() ([]*network.Cookie, error) {
	return m.cookieStore.SessionCookies()
}
