package catalog

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFixture reads a whitespace-delimited test fixture, one particle per
// line: "x y z w tracer". Blank lines and lines starting with '#' are
// skipped. This is deliberately minimal: production catalog ingestion
// (FITS/HDF5/ASCII survey formats, RA/Dec to Cartesian projection, etc.)
// is an external collaborator per the Non-goals; this loader exists only
// to build Particles for the smoke test and local experimentation.
func LoadFixture(path string) (Particles, error) {
	f, err := os.Open(path)
	if err != nil {
		return Particles{}, fmt.Errorf("catalog: opening fixture %s: %w", path, err)
	}
	defer f.Close()

	var particles Particles
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return Particles{}, fmt.Errorf("catalog: fixture %s line %d: expected 5 fields, got %d", path, lineNo, len(fields))
		}

		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Particles{}, fmt.Errorf("catalog: fixture %s line %d: %w", path, lineNo, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Particles{}, fmt.Errorf("catalog: fixture %s line %d: %w", path, lineNo, err)
		}
		z, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Particles{}, fmt.Errorf("catalog: fixture %s line %d: %w", path, lineNo, err)
		}
		w, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return Particles{}, fmt.Errorf("catalog: fixture %s line %d: %w", path, lineNo, err)
		}
		tracer, err := strconv.ParseInt(fields[4], 10, 8)
		if err != nil {
			return Particles{}, fmt.Errorf("catalog: fixture %s line %d: %w", path, lineNo, err)
		}

		particles.X = append(particles.X, x)
		particles.Y = append(particles.Y, y)
		particles.Z = append(particles.Z, z)
		particles.W = append(particles.W, w)
		particles.Tracer = append(particles.Tracer, int8(tracer))
	}
	if err := scanner.Err(); err != nil {
		return Particles{}, fmt.Errorf("catalog: reading fixture %s: %w", path, err)
	}

	return particles, particles.Validate()
}
