package main

import "github.com/frahmantamala/hosted-checkout/cmd"

func main() {
	cmd.Execute()
}
