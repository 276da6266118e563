// Command passwd prints a password hash for seeding vidtube accounts.
//
//	echo 's3cret' | passwd -hash argon2id
package main

import (
	"os"

	"github.com/dmitrijs2005/vidtube/internal/passwd"
)

func main() {
	os.Exit(passwd.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
