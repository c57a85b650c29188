//go:build !cgo

package main

// The C exports in cgo.go require cgo; without it the package still needs an
// entry point so the shared handle logic builds and its tests run.
func main() {}
