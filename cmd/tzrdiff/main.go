// Command tzrdiff compares two serialized rule set files or zone packs
// and prints their differences.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"

	"github.com/javierg1975/chronos-sub004/tzregistry"
	"github.com/javierg1975/chronos-sub004/tzrules"
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// rulesView is a rendered form of a rule set that diffs readably.
type rulesView struct {
	Fixed       bool
	Standard    []string
	Transitions []string
	Rules       []string
}

// packView is a rendered form of a pack.
type packView struct {
	Version string
	Zones   map[string]rulesView
}

func run() error {
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		return fmt.Errorf("Usage: tzrdiff <rules or pack file A> <rules or pack file B>")
	}

	av, err := load(args[0])
	if err != nil {
		return err
	}
	bv, err := load(args[1])
	if err != nil {
		return err
	}

	if diff := cmp.Diff(av, bv); diff != "" {
		fmt.Println("files are different: -A +B")
		fmt.Println(diff)
	} else {
		fmt.Println("files are identical")
	}

	return nil
}

func load(path string) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(b, []byte("TZRP")) {
		pack, err := tzregistry.ReadPack(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		v := packView{Version: string(pack.Version), Zones: make(map[string]rulesView, len(pack.Zones))}
		for id, r := range pack.Zones {
			v.Zones[id] = viewOf(r)
		}
		return v, nil
	}
	r, err := tzrules.ReadRules(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return viewOf(r), nil
}

func viewOf(r *tzrules.Rules) rulesView {
	v := rulesView{Fixed: r.IsFixed()}
	for _, t := range r.StandardTransitions() {
		v.Standard = append(v.Standard, t.String())
	}
	for _, t := range r.Transitions() {
		v.Transitions = append(v.Transitions, t.String())
	}
	for _, rule := range r.TransitionRules() {
		v.Rules = append(v.Rules, rule.String())
	}
	return v
}
