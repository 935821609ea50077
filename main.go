package main

import (
	"github.com/fulcrumhq/skillsync/cmd"
	"github.com/fulcrumhq/skillsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
