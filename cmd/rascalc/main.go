// Package main wires a compute.Integral together from a config file and
// runs it to completion, writing its accumulated matrices to an output
// directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pthm-cable/rascalc/catalog"
	"github.com/pthm-cable/rascalc/compute"
	"github.com/pthm-cable/rascalc/config"
	"github.com/pthm-cable/rascalc/grid"
	"github.com/pthm-cable/rascalc/randdraw"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use embedded defaults)")
	outputDir := flag.String("output", "", "Output directory for the accumulated matrices")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	particles, err := catalog.LoadFixture(cfg.Input.CatalogFile)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	g, err := grid.Build(particles, cfg.Input.CellSize, cfg.Input.Periodic, cfg.Input.BoxSize)
	if err != nil {
		log.Fatalf("failed to build grid: %v", err)
	}

	integral := &compute.Integral{
		Grid:      g,
		CubeDraws: randdraw.NewCubeSampler(cfg.Draws.MaxCubeRadius),
		Params:    cfg,
		LOS:       cfg.Input.LOS,
		RMax:      cfg.Input.RMax,
	}

	ctx := context.Background()

	if cfg.Covariance.MultiTracers {
		results, err := integral.RunMultiTracer(ctx)
		if err != nil {
			log.Fatalf("run failed: %v", err)
		}
		for i, result := range results {
			combo := compute.TracerCombos[i]
			tag := fmt.Sprintf("%d%d%d%d", combo[0], combo[1], combo[2], combo[3])
			if err := result.Accumulator.SaveIntegrals(*outputDir, tag, true); err != nil {
				log.Fatalf("failed to save combo %s integrals: %v", tag, err)
			}
		}
		return
	}

	result, err := integral.Run(ctx)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	if err := result.Accumulator.SaveIntegrals(*outputDir, cfg.Covariance.OutFile, true); err != nil {
		log.Fatalf("failed to save integrals: %v", err)
	}
}
