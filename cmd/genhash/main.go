// cmd/genhash prints a bcrypt hash for the password given as first argument,
// for seeding users by hand.
package main

import (
	"fmt"
	"os"

	"gstbilling/internal/service"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <password>")
		os.Exit(2)
	}
	h, err := service.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(h)
}
