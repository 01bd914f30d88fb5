package main

// ResultMsg carries the outcome of a command run in the background.
type ResultMsg struct {
	id    int
	input string
	res   result
}
