package fetch

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ConsolePrompt asks for credentials interactively on the controlling
// terminal. This is a deliberate suspension point: the run blocks until
// the operator answers. Non-interactive environments must configure a
// StaticProvider instead.
type ConsolePrompt struct{}

// Credentials implements CredentialProvider by prompting on stderr and
// reading the password without echo.
func (ConsolePrompt) Credentials(origin string) (Credential, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return Credential{}, fmt.Errorf("stdin is not a terminal; configure credentials for %s", origin)
	}

	fmt.Fprintf(os.Stderr, "Authentication required for %s\n", origin)
	fmt.Fprint(os.Stderr, "Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, err := reader.ReadString('\n')
	if err != nil {
		return Credential{}, fmt.Errorf("read username: %w", err)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return Credential{}, fmt.Errorf("read password: %w", err)
	}

	return Credential{
		Username: strings.TrimSpace(username),
		Password: string(password),
	}, nil
}
