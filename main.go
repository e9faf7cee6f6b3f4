package main

import "github.com/jsphweid/boomparts/cmd"

func main() {
	cmd.Execute()
}
