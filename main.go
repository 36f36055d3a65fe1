package main

import "devbox_provision/cmd"

func main() {
	cmd.Execute()
}
