// Command arborsnap renders a directory tree or a scene outline with an
// arbor viewer, either to a PNG, SVG or text snapshot or interactively in
// the terminal.
//
// Usage:
//
//	arborsnap [PATH] [flags]
//	arborsnap view [PATH] [flags]
//
// PATH is a directory, or a scene file ending in .json. It defaults to the
// current directory.
package main

func main() {
	Execute()
}
