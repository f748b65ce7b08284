// notefs mounts a hierarchical collection of notes and folders,
// stored in a relational database, as a POSIX filesystem.
package main

import "github.com/relfs/notefs/cmd"

func main() {
	cmd.Execute()
}
