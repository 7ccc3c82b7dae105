package main

import "github.com/Alijeyrad/medstage_backend/cmd"

func main() {
	cmd.Execute()
}
