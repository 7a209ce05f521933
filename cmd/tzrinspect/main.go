// Command tzrinspect decodes a serialized rule set, transition or rule
// file, or a zone pack, and prints its contents.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/javierg1975/chronos-sub004/tzregistry"
	"github.com/javierg1975/chronos-sub004/tzrules"
)

var rulesFlag = flag.Bool("rules", false, "Only print recurrence rules, skip transition tables")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		fmt.Println("Usage: tzrinspect <rules or pack file>")
		os.Exit(1)
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Println("reading file:", err)
		os.Exit(1)
	}

	if bytes.HasPrefix(b, []byte("TZRP")) {
		pack, err := tzregistry.ReadPack(bytes.NewReader(b))
		if err != nil {
			fmt.Println("decoding pack:", err)
			os.Exit(1)
		}
		printPack(pack)
		return
	}

	r := bytes.NewReader(b)
	v, err := tzrules.Decode(r)
	if err != nil {
		fmt.Println("decoding:", err)
		os.Exit(1)
	}
	printValue(v)
	printRest(r)
}

func printPack(p *tzregistry.Pack) {
	fmt.Println("Pack")
	fmt.Println("  Version =", p.Version)
	fmt.Println("  Zones =", len(p.Zones))
	fmt.Println()
	for _, id := range sortedZoneIDs(p) {
		fmt.Println("Zone", id)
		printRules(p.Zones[id])
	}
}

func sortedZoneIDs(p *tzregistry.Pack) []string {
	g := tzregistry.NewRegistry()
	if err := g.RegisterPack(p); err != nil {
		fmt.Println("indexing pack:", err)
		os.Exit(1)
	}
	return g.ZoneIDs()
}

func printValue(v any) {
	switch x := v.(type) {
	case *tzrules.Rules:
		printRules(x)
	case tzrules.Transition:
		fmt.Println("Transition")
		fmt.Println("  ", x)
	case tzrules.Rule:
		fmt.Println("Rule")
		fmt.Println("  ", x)
	}
}

func printRules(r *tzrules.Rules) {
	if r.IsFixed() {
		fmt.Println("  Fixed offset =", r.OffsetAt(0))
		fmt.Println()
		return
	}
	if !*rulesFlag {
		std := r.StandardTransitions()
		fmt.Printf("  StandardTransitions (%d)\n", len(std))
		for _, t := range std {
			fmt.Println("    ", t)
		}
		trans := r.Transitions()
		fmt.Printf("  Transitions (%d)\n", len(trans))
		for _, t := range trans {
			fmt.Println("    ", t)
		}
	}
	rules := r.TransitionRules()
	fmt.Printf("  TransitionRules (%d)\n", len(rules))
	for _, rule := range rules {
		fmt.Println("    ", rule)
	}
	fmt.Println()
}

func printRest(r *bytes.Reader) {
	if r.Len() == 0 {
		return
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		fmt.Println("reading remaining data:", err)
		os.Exit(1)
	}
	fmt.Println("remaining data:", len(rest), "bytes")
}
