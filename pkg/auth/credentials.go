package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrMissingEmail is returned when no account email is configured
	ErrMissingEmail = errors.New("email is required")
	// ErrCredentialsNotFound is returned when no source yields a password
	ErrCredentialsNotFound = errors.New("password not provided")
	// ErrSourceUnavailable is returned by a source that cannot be used here,
	// for example a prompt when stdin is not a terminal
	ErrSourceUnavailable = errors.New("credential source unavailable")
)

// Credentials identify a Procare parent account. They live only in
// memory for the duration of a run.
type Credentials struct {
	Email    string
	Password string
}

// Source yields the password for an account
type Source interface {
	Name() string
	Password(email string) (string, error)
}

// Manager resolves credentials from an ordered list of sources
type Manager struct {
	sources []Source
}

// NewManager creates a manager that tries sources in order
func NewManager(sources ...Source) *Manager {
	return &Manager{sources: sources}
}

// Resolve returns credentials for email using the first source that
// yields a non-empty password.
func (m *Manager) Resolve(email string) (*Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	var lastErr error
	for _, source := range m.sources {
		password, err := source.Password(email)
		if err != nil {
			if !errors.Is(err, ErrSourceUnavailable) && !errors.Is(err, ErrCredentialsNotFound) {
				return nil, fmt.Errorf("%s: %w", source.Name(), err)
			}
			lastErr = err
			continue
		}
		if password != "" {
			return &Credentials{Email: email, Password: password}, nil
		}
	}

	if lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsNotFound, lastErr)
	}
	return nil, ErrCredentialsNotFound
}

// StaticSource returns a password that was already loaded from config,
// environment or flags.
type StaticSource struct {
	Value string
}

func (s StaticSource) Name() string { return "config" }

func (s StaticSource) Password(string) (string, error) {
	if s.Value == "" {
		return "", ErrCredentialsNotFound
	}
	return s.Value, nil
}

// ReaderSource reads the password from the first line of a reader, as
// used by --password-stdin.
type ReaderSource struct {
	Reader io.Reader
}

func (s ReaderSource) Name() string { return "stdin" }

func (s ReaderSource) Password(string) (string, error) {
	if s.Reader == nil {
		return "", ErrSourceUnavailable
	}
	line, err := bufio.NewReader(s.Reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", ErrCredentialsNotFound
	}
	return password, nil
}

// TerminalSource prompts for the password without echo. It is
// unavailable when the input is not a terminal.
type TerminalSource struct {
	File   *os.File
	Prompt io.Writer
}

// NewTerminalSource prompts on stderr and reads from stdin
func NewTerminalSource() TerminalSource {
	return TerminalSource{File: os.Stdin, Prompt: os.Stderr}
}

func (s TerminalSource) Name() string { return "prompt" }

func (s TerminalSource) Password(email string) (string, error) {
	if s.File == nil || !term.IsTerminal(int(s.File.Fd())) {
		return "", ErrSourceUnavailable
	}

	fmt.Fprintf(s.Prompt, "Password for %s: ", email)
	raw, err := term.ReadPassword(int(s.File.Fd()))
	fmt.Fprintln(s.Prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
