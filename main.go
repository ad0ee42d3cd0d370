package main

import "github.com/frahmantamala/user-directory/cmd"

func main() {
	cmd.Execute()
}
