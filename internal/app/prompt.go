// internal/app/prompt.go
package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rovshanmuradov/solana-wallet/internal/config"
)

// PassphraseEnv – переменная окружения с паролем хранилища ключей.
const PassphraseEnv = config.EnvPrefix + "_PASSPHRASE"

// ErrKeyringLocked – пароль хранилища ключей не получен.
var ErrKeyringLocked = errors.New("keyring passphrase is required")

var errDeclined = errors.New("aborted by user")

func (s *runtimeState) input() *bufio.Reader {
	if s.reader == nil {
		s.reader = bufio.NewReader(s.runner.stdin)
	}
	return s.reader
}

// terminalFd возвращает дескриптор, если ввод идёт с терминала.
func (s *runtimeState) terminalFd() (int, bool) {
	f, ok := s.runner.stdin.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// readLine читает одну строку ввода без завершающего перевода строки.
func (s *runtimeState) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(s.runner.stderr, prompt)
	}
	line, err := s.input().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecret читает строку без эха, если ввод идёт с терминала.
func (s *runtimeState) readSecret(prompt string) (string, error) {
	if fd, ok := s.terminalFd(); ok {
		fmt.Fprint(s.runner.stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(s.runner.stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := s.readLine("")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// passphrase берёт пароль из окружения или запрашивает его.
func (s *runtimeState) passphrase() ([]byte, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return []byte(p), nil
	}
	p, err := s.readSecret("Keyring passphrase: ")
	if err != nil || p == "" {
		return nil, ErrKeyringLocked
	}
	return []byte(p), nil
}

// confirm спрашивает подтверждение; --yes пропускает вопрос.
func (s *runtimeState) confirm(question string) error {
	if s.flags.Yes {
		return nil
	}
	answer, err := s.readLine(question + " [y/N]: ")
	if err != nil {
		return errDeclined
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errDeclined
}
