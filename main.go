package main

import "chavito/cmd"

func main() {
	cmd.Execute()
}
