package commands

import (
	"SchemaDesk/internal/config"
	"context"
	"fmt"
)

type setupCmd struct{}

func (setupCmd) Name() string        { return "setup" }
func (setupCmd) Description() string { return "Create the first admin on a fresh server" }
func (setupCmd) Usage() string       { return "setup <email> [password]" }

func (setupCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	password, err := passwordArg(args, 1)
	if err != nil {
		return err
	}
	u, err := newSession(cfg).Setup(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Admin %s created, logged in\n", u.Email)
	return nil
}

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store auth cookie" }
func (loginCmd) Usage() string       { return "login [email] [password]" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 2 {
		return ErrUsage
	}
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		// по умолчанию тот, кто входил последним
		last, err := tokenStore(cfg).LoadEmail()
		if err != nil {
			return ErrUsage
		}
		email = last
	}
	password, err := passwordArg(args, 1)
	if err != nil {
		return err
	}
	u, err := newSession(cfg).Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Logged in as %s (%s)\n", u.Email, u.Role)
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Logout and forget the stored token" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	s := newSession(cfg)
	if tok, err := tokenStore(cfg).Load(); err == nil {
		s.Client.Token = tok
	}
	if err := s.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

type whoamiCmd struct{}

func (whoamiCmd) Name() string        { return "whoami" }
func (whoamiCmd) Description() string { return "Show the logged in user" }
func (whoamiCmd) Usage() string       { return "whoami" }

func (whoamiCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	s, err := loggedIn(ctx, cfg)
	if err != nil {
		return err
	}
	u, _ := s.User()
	fmt.Fprintf(Out, "%s (%s)\n", u.Email, u.Role)
	return nil
}

// passwordArg берёт пароль из args[i] или спрашивает его.
func passwordArg(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return readPassword("Password: ")
}

func init() {
	RegisterCmd(setupCmd{})
	RegisterCmd(loginCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(whoamiCmd{})
}
