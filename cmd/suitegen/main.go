package main

import (
	"flag"
	"log"

	"github.com/AzyrRuthless/microbench/internal/config"
	"github.com/AzyrRuthless/microbench/internal/suite"
)

func main() {
	kind := flag.String("kind", "suite", "config kind: suite|benchd")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to the per-kind name)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		switch *kind {
		case "suite":
			if _, err := suite.Load(path); err != nil {
				log.Fatal(err)
			}
		case "benchd":
			if _, err := config.LoadBenchdConfig(path); err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "suite":
		return "suite.toml"
	case "benchd":
		return "benchd.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}
