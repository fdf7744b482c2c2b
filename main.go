package main

import "github.com/vibast-solutions/ms-go-jobtracker/cmd"

func main() {
	cmd.Execute()
}
