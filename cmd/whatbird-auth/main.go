package main

import "github.com/lopushok9/whatbird/cmd/whatbird-auth/cmd"

func main() {
	cmd.Execute()
}
