package commands

import (
	"context"
	"fmt"
	"io"

	"taskdeck/pkg/app"
	"taskdeck/pkg/session"
)

// HandleLogin signs in with email and password, prompting for whatever is
// missing
func HandleLogin(ctx context.Context, a *app.App, p *Prompter, email string) error {
	var err error
	if email == "" {
		if email, err = p.Ask("Email: "); err != nil {
			return err
		}
	}
	password, err := p.Password("Password: ")
	if err != nil {
		return err
	}

	if err := a.Gate.SignInWithEmail(ctx, email, password); err != nil {
		return err
	}
	return HandleWhoAmI(a, p.Out)
}

// HandleFederatedLogin signs in with the configured federated provider
func HandleFederatedLogin(ctx context.Context, a *app.App, out io.Writer) error {
	if err := a.Gate.SignInWithFederated(ctx); err != nil {
		return err
	}
	return HandleWhoAmI(a, out)
}

// HandleSignUp creates an account and signs it in
func HandleSignUp(ctx context.Context, a *app.App, p *Prompter, email, name string) error {
	var err error
	if email == "" {
		if email, err = p.Ask("Email: "); err != nil {
			return err
		}
	}
	if name == "" {
		if name, err = p.Ask("Display name: "); err != nil {
			return err
		}
	}
	password, err := p.Password("Password: ")
	if err != nil {
		return err
	}
	confirm, err := p.Password("Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := a.Gate.SignUp(ctx, email, password, name); err != nil {
		return err
	}
	return HandleWhoAmI(a, p.Out)
}

// HandleLogout signs out and forgets the saved session
func HandleLogout(ctx context.Context, a *app.App, out io.Writer) error {
	if _, err := a.Gate.Principal(); err != nil {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	if err := a.Gate.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Signed out.")
	return nil
}

// HandleWhoAmI prints the signed-in user
func HandleWhoAmI(a *app.App, out io.Writer) error {
	p, err := a.Gate.Principal()
	if err != nil {
		return session.ErrUnauthenticated
	}
	if p.DisplayName() != "" {
		fmt.Fprintf(out, "Signed in as %s <%s>\n", p.DisplayName(), p.Email())
	} else {
		fmt.Fprintf(out, "Signed in as %s\n", p.Email())
	}
	return nil
}
