package commands

import (
	"SchemaDesk/internal/cli/api"
	fsrepo "SchemaDesk/internal/cli/repo/fs"
	"SchemaDesk/internal/cli/session"
	"SchemaDesk/internal/config"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown.
var ErrUsage = errors.New("usage")

// Command represents a CLI subcommand.
type Command interface {
	// Name returns the command name as typed by the user, e.g. "login".
	Name() string
	// Description is a short human-readable description shown in help.
	Description() string
	// Usage returns the exact usage string, e.g. "login [email] [password]".
	Usage() string
	// Run executes the command with provided args (without the command name).
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// registry holds available commands by name.
var registry = map[string]Command{}

// Out - общий writer для вывода CLI. По умолчанию os.Stdout, но в тестах может переназначаться.
var Out io.Writer = os.Stdout

// In - источник ввода пароля. Для терминала эхо отключается.
var In io.Reader = os.Stdin

// RegisterCmd adds a command to the registry. Should be called from init() of each command.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get returns a command by name.
func Get(name string) (Command, bool) {
	c, ok := registry[name]
	return c, ok
}

// List returns all registered commands sorted by name.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// FormatGlobalUsage builds a help text for all commands.
func FormatGlobalUsage() string {
	lines := []string{
		"SchemaDesk CLI",
		"",
		"Usage:",
		"  sdcli [--base-url <host:port>|URL] [--token-file <path>] <command> [args]",
		"",
		"Commands:",
	}
	for _, c := range List() {
		lines = append(lines, fmt.Sprintf("  %-44s %s", c.Usage(), c.Description()))
	}
	return strings.Join(lines, "\n") + "\n"
}

func tokenStore(cfg *config.Config) fsrepo.AuthFSStore {
	return fsrepo.AuthFSStore{Path: cfg.TokenFile}
}

func newSession(cfg *config.Config) *session.Session {
	return session.New(api.New(cfg.ServerURL, ""), tokenStore(cfg))
}

// loggedIn поднимает сессию из сохранённого токена.
func loggedIn(ctx context.Context, cfg *config.Config) (*session.Session, error) {
	s := newSession(cfg)
	if err := s.Init(ctx); err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			return nil, errors.New("not logged in, run `login` first")
		}
		return nil, err
	}
	return s, nil
}

// readPassword спрашивает пароль; в терминале без эха.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(Out, prompt)
	if f, ok := In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(Out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(In).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
