// Public domain.

package main

import "github.com/soniakeys/finder/internal/prog"

func main() {
	prog.Main()
}
