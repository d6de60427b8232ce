package main

import (
	"log"
	"os"
)

func main() {
	log.SetPrefix("[cAPI] ")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
