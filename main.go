package main

import "github.com/iksnae/guidechat/cmd"

func main() {
	cmd.Execute()
}
