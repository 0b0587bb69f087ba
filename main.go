package main

import "github.com/sipb/hydrant/cmd"

func main() {
	cmd.Execute()
}
