// Command flepimop-inference runs the dual-chain (and optional EMCEE
// ensemble) MCMC epidemic parameter inference core described in spec.md.
package main

import "github.com/hopkinsidd/flepimop-inference/cmd"

func main() {
	cmd.Execute()
}
