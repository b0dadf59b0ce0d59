// ./main.go
package main

import (
	"github.com/dkharel/meroflow/cmd"
)

func main() {
	cmd.Execute()
}
