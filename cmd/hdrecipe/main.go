package main

import "github.com/goplus/hdrecipe/cmd/hdrecipe/internal"

func main() {
	internal.Execute()
}
