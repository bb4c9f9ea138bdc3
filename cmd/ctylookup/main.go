package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"spotfeed/cty"
	"spotfeed/spot"
)

func main() {
	dataPath := flag.String("data", "data/cty/cty.dat", "path to CTY data file (.dat or .plist)")
	flag.Parse()

	db, err := cty.Load(*dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading CTY database: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("loaded CTY database with %d entities, %d prefixes\n", db.EntityCount(), db.PrefixCount())
	fmt.Println("enter callsigns (Ctrl+C to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		call := strings.TrimSpace(scanner.Text())
		if call == "" {
			continue
		}
		normalized := spot.NormalizeCallsign(call)
		entry, ok := db.LookupCallsign(normalized)
		if !ok {
			fmt.Println("no matching prefix")
			continue
		}
		fmt.Printf("%s -> country=%s, lat=%.4f, lon=%.4f\n",
			normalized, entry.Name, entry.Latitude, entry.Longitude)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
	}
}
