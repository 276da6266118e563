// Package passwd implements the password hashing tool used to seed
// accounts directly in the database. It prints a hash in the format the
// server's configured hasher verifies.
package passwd

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/cryptox"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// GetPassword prints prompt to w and reads a password from the terminal
// without echo. A newline is printed after the read.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// Run parses args, reads the password (prompted twice on a terminal, one
// line from in otherwise) and writes the hash to out. It returns the
// process exit code.
func Run(args []string, in io.Reader, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	algo := fs.String("hash", "bcrypt", "password hash algorithm (bcrypt|argon2id)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	hasher, err := cryptox.NewHasher(*algo)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	pw, err := readInput(in, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if strings.TrimSpace(pw) == "" {
		fmt.Fprintln(errOut, "password must not be empty")
		return 1
	}

	hash, err := hasher.Hash(pw)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	fmt.Fprintln(out, string(hash))
	return 0
}

func readInput(in io.Reader, prompt io.Writer) (string, error) {
	if !isTerminal(int(os.Stdin.Fd())) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	first, err := GetPassword(prompt, "Enter password: ")
	if err != nil {
		return "", err
	}
	second, err := GetPassword(prompt, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", ErrPasswordMismatch
	}
	return string(first), nil
}
