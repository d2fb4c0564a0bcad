package main

import (
	"log"

	"github.com/grexie/n8n-protector/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
