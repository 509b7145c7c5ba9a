package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sansecio/yarax/compiler"
	_ "github.com/sansecio/yarax/modules/hashmod"
	_ "github.com/sansecio/yarax/modules/mathmod"
	"github.com/sansecio/yarax/parser"
	"github.com/sansecio/yarax/scanner"
)

var profileFlag = flag.Bool("profile", false, "print per-regex timing against <path> instead of scanning it")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: yarax [-profile] <rules.yar> <path>\n")
		os.Exit(1)
	}

	rulesFile := args[0]
	scanPath := args[1]

	p := parser.New()
	ruleSet, err := p.ParseFile(rulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing rules: %v\n", err)
		os.Exit(1)
	}

	rules, err := compiler.Compile(ruleSet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error compiling rules: %v\n", err)
		os.Exit(1)
	}

	acPatterns, regexPatterns := rules.Stats()
	fmt.Fprintf(os.Stderr, "compiled %d rules (%d AC patterns, %d regex patterns)\n", rules.NumRules, acPatterns, regexPatterns)

	if *profileFlag {
		runProfile(rules, scanPath)
		return
	}

	runScan(rules, scanPath)
}

func runProfile(rules *compiler.RuleSet, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	for _, t := range rules.RegexProfile(data) {
		fmt.Printf("%s:%s\t%s\tcalls=%d\tduration=%s\n", t.Rule, t.String, t.Pattern, t.Calls, t.Duration)
	}
}

func runScan(rules *compiler.RuleSet, scanPath string) {
	s := scanner.NewScanner(rules)

	var scanned, matched int

	err := filepath.WalkDir(scanPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		scanned++

		res, err := s.ScanFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error scanning %s: %v\n", path, err)
			return nil
		}

		if cur := res.MatchingRules(); cur.Len() > 0 {
			matched++
			fmt.Println(path)
			for {
				r, ok := cur.Next()
				if !ok {
					break
				}
				fmt.Printf("  %s:%s\n", r.Namespace(), r.Name())
			}
		}

		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error walking path: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "scanned %d files, %d matched\n", scanned, matched)
}
