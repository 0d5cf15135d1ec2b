package main

import (
	"go.brendoncarroll.net/star"

	"tapeweb.org/tape/tapecmd"
)

func main() {
	star.Main(tapecmd.Root())
}
