package main

import (
	"flag"
	"log"
)

func main() {
	di := flag.String("di", "manual", "how dependencies are wired: manual or dig")
	flag.Parse()

	switch *di {
	case "manual":
		startManual()
	case "dig":
		startWithDig()
	default:
		log.Fatalf("unknown -di mode %q", *di)
	}
}
