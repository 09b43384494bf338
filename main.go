package main

import "bizdocs-backend/cmd"

func main() {
	cmd.Execute()
}
