package commands

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/scrumwise/scrumwise-cli/internal/api"
	"github.com/scrumwise/scrumwise-cli/internal/config"
	"github.com/scrumwise/scrumwise-cli/internal/credentials"
	"github.com/scrumwise/scrumwise-cli/internal/session"
)

type Globals struct {
	Debug   bool
	Version string
}

// clientFlags are shared by every command that talks to the Account API.
type clientFlags struct {
	Server         string `help:"Server URL" env:"SCRUMWISE_SERVER"`
	Config         string `help:"Config file path (default: ~/.scrumwise/config.yaml)" env:"SCRUMWISE_CONFIG"`
	CredentialsDir string `help:"Credentials directory (default: ~/.scrumwise)"`
	Cache          bool   `help:"Cache GET responses that allow it"`
}

// load resolves config file values with flag overrides applied.
func (f *clientFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	if f.Server != "" {
		cfg.Server = f.Server
	}
	if f.CredentialsDir != "" {
		cfg.CredentialsDir = f.CredentialsDir
	}
	if f.Cache {
		cfg.Cache = true
	}
	return cfg, nil
}

// manager wires the credential store and session manager for a command.
func (f *clientFlags) manager() (*session.Manager, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}

	store, err := credentials.NewFileStore(cfg.CredentialsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	var base http.RoundTripper
	if cfg.Cache {
		base = api.NewCachingTransport(cfg.CacheDir)
	}

	return session.NewManager(session.Config{
		ServerURL: cfg.Server,
		Store:     store,
		Base:      base,
		OnSignOut: func() {
			fmt.Fprintln(os.Stderr, "Signed out. Run `scrumwise-cli login` to sign in again.")
		},
	})
}

// client builds a bare Account API client for operations that never carry a
// session, like the password-reset flow.
func (f *clientFlags) client() (*api.Client, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	return api.NewClient(api.Config{
		ServerURL: cfg.Server,
		Transport: &api.Transport{},
	}), nil
}

// promptPassword reads a password from stdin when it was not passed as a
// flag. On a terminal the input is read without echo; piped stdin falls back
// to a buffered line read.
func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)

	var password string
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(data)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}
