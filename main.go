package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dwelling-energy/dwellsim/dwellsim"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", "", "optional run settings file (JSON or YAML)")

	var inputPath string
	flag.StringVar(&inputPath, "i", "", "dwelling description JSON file to simulate")

	var weatherPath string
	flag.StringVar(&weatherPath, "w", "", "weather data CSV file")

	var outputDir string
	flag.StringVar(&outputDir, "o", "results", "directory the result CSV files are written to")

	var fastSolver bool
	flag.BoolVar(&fastSolver, "fast", true, "solve zone temperatures with the forward elimination fast path")

	var pprofEnable bool
	flag.BoolVar(&pprofEnable, "pprof", false, "profile the run and save the result to cpu.prof")

	flag.Parse()

	// Settings come from the config file, overridden by DWELLSIM_*
	// environment variables, overridden by flags given on the command
	// line.
	k := koanf.New(".")
	if configPath != "" {
		var parser koanf.Parser = kjson.Parser()
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yaml" || ext == ".yml" {
			parser = yaml.Parser()
		}
		if err := k.Load(file.Provider(configPath), parser); err != nil {
			log.Fatalf("load config %s: %v", configPath, err)
		}
	}
	if err := k.Load(env.Provider("DWELLSIM_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DWELLSIM_"))
	}), nil); err != nil {
		log.Fatalf("load environment: %v", err)
	}

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	if !setFlags["i"] && k.Exists("input") {
		inputPath = k.String("input")
	}
	if !setFlags["w"] && k.Exists("weather") {
		weatherPath = k.String("weather")
	}
	if !setFlags["o"] && k.Exists("output") {
		outputDir = k.String("output")
	}
	if !setFlags["fast"] && k.Exists("fast_solver") {
		fastSolver = k.Bool("fast_solver")
	}

	if inputPath == "" {
		log.Fatal("no dwelling description given: use the -i option or the input config key")
	}
	if weatherPath == "" {
		log.Fatal("no weather data given: use the -w option or the weather config key")
	}

	if pprofEnable {
		f, err := os.Create("cpu.prof")
		if err != nil {
			panic(err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				panic(err)
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()

	if err := dwellsim.Run(inputPath, weatherPath, outputDir, fastSolver); err != nil {
		log.Fatal(err)
	}

	elapsedTime := time.Since(start)
	log.Printf("elapsed_time: %v [sec]", elapsedTime)
}
