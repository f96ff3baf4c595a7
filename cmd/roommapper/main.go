// Command roommapper reconstructs a hidden labelled room graph from a
// black-box oracle's movement queries.
package main

import "github.com/mapsmith/roommapper/cmd/roommapper/cmd"

func main() {
	cmd.Execute()
}
