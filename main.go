package main

import "github.com/jsphweid/midicompare/cmd"

func main() {
	cmd.Execute()
}
