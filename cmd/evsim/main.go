// Command evsim runs and inspects discrete-event network simulations.
package main

import "github.com/tessera-sim/evsim/internal/cmd"

func main() {
	cmd.Execute()
}
