package pages

import (
	"context"
	"fmt"
	"strings"

	"e2e_harness/application/engine"
	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"
)

const (
	// LoginPath is the login form, relative to the wiki base url
	LoginPath = "/w/index.php?title=Special:UserLogin"
	// LoginErrorText is what the wiki shows for a bad credential pair
	LoginErrorText = "Incorrect username or password."
)

// Credentials is the account used by the interactive login flow
type Credentials struct {
	Username string
	Password string
}

// Validate rejects an incomplete credential pair
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return entities.ErrMissingCredentials
	}
	return nil
}

func UsernameField() entities.Locator { return entities.ByRole("textbox", "Username") }

func PasswordField() entities.Locator { return entities.ByLabel("Password") }

func LoginButton() entities.Locator { return entities.ByRole("button", "Log in") }

// WelcomeHeading is the landmark of a signed-in main page
func WelcomeHeading() entities.Locator { return entities.ByCSS("div#mp-welcome h1") }

// LoginError is the landmark of a rejected login
func LoginError() entities.Locator { return entities.ByText(LoginErrorText) }

// Login signs in through the form and waits for either landmark. The error
// landmark yields a LoginFailureError, which callers must not retry.
func Login(ctx context.Context, e *engine.Engine, page interfaces.Page, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	if err := page.Navigate(ctx, LoginPath); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if _, err := e.Fill(ctx, page, UsernameField(), creds.Username); err != nil {
		return err
	}
	if _, err := e.Fill(ctx, page, PasswordField(), creds.Password); err != nil {
		return err
	}
	if _, err := e.Click(ctx, page, LoginButton()); err != nil {
		return err
	}

	idx, el, err := e.WaitForAny(ctx, page, []entities.Locator{WelcomeHeading(), LoginError()})
	if err != nil {
		return fmt.Errorf("waiting for login outcome: %w", err)
	}
	if idx == 1 {
		msg, err := page.ReadText(ctx, el.Node)
		if err != nil || strings.TrimSpace(msg) == "" {
			msg = LoginErrorText
		}
		return &entities.LoginFailureError{Message: entities.NormalizeText(msg)}
	}
	return nil
}
