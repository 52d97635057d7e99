package accumulator

import "fmt"

// genericAccumulator implements Accumulator given a variantKernel; the
// three concrete variants (angular.go, legendre.go, power.go) are thin
// constructors around this shared body, since Second/Third/Fourth fold
// identically once radialBin/basis are supplied (see variant.go).
type genericAccumulator struct {
	base
	kernel variantKernel
	subdir string
}

func newGenericAccumulator(kernel variantKernel, subdir string, nbin, mbin int, rMax float64, nRegions int) *genericAccumulator {
	return &genericAccumulator{
		base:   newBase(nbin, mbin, rMax, nRegions),
		kernel: kernel,
		subdir: subdir,
	}
}

func (g *genericAccumulator) SubDir() string { return g.subdir }

func (g *genericAccumulator) Second(ctx *SecondCtx) {
	if err := validateVariantInputs(ctx.Prim, ctx.BinIJ, ctx.WIJ); err != nil {
		panic(err)
	}
	partner := ctx.PartnerParticles.Pos(ctx.J)
	for idx, i := range ctx.Prim {
		primPos := ctx.PrimParticles.Pos(i)
		r := separation(primPos, partner)
		rb, ok := g.kernel.radialBin(r)
		if !ok {
			ctx.BinIJ[idx] = NoBin
			ctx.WIJ[idx] = 0
			if ctx.BasisIJ != nil {
				ctx.BasisIJ[idx] = nil
			}
			continue
		}
		mu := cosineToLOS(primPos, partner, ctx.LOS)
		basis := g.kernel.basis(rb, r, mu)

		w := ctx.PrimParticles.W[i] * ctx.PartnerParticles.W[ctx.J]
		// Angular's mixed-partition cells split the marginal proposal
		// probability into P21/P22 (§4.3); a caller that never mixes
		// partitions leaves both at zero and P2 is used as-is.
		p2 := ctx.P2
		switch ctx.PartnerParticles.Tracer[ctx.J] {
		case 1:
			if ctx.P21 != 0 {
				p2 = ctx.P21
			}
		case 2:
			if ctx.P22 != 0 {
				p2 = ctx.P22
			}
		}
		ctx.BinIJ[idx] = rb
		ctx.WIJ[idx] = w
		if ctx.BasisIJ != nil {
			ctx.BasisIJ[idx] = basis
		}
		foldSecond(g.c2, g.mbin, rb, w, p2, basis)
		if g.jackknife && ctx.RegionOf != nil {
			region := ctx.RegionOf(i)
			if region >= 0 && region < g.nRegions {
				foldSecond(g.c2j[region], g.mbin, rb, w, p2, basis)
			}
		}
		g.cnt2++
	}
}

func (g *genericAccumulator) Third(ctx *ThirdCtx) {
	if len(ctx.XiIK) != len(ctx.Prim) || len(ctx.WIJK) != len(ctx.Prim) || len(ctx.BinIK) != len(ctx.Prim) {
		panic(fmt.Errorf("accumulator: Third output buffers must be pre-sized to len(Prim)=%d", len(ctx.Prim)))
	}
	kPos := ctx.KParticles.Pos(ctx.K)
	tb := totalBins(g.nbin, g.mbin)

	for idx, i := range ctx.Prim {
		if ctx.BinIJ[idx] == NoBin {
			ctx.BinIK[idx] = NoBin
			continue
		}
		iPos := ctx.KParticles.Pos(i)
		r := separation(iPos, kPos)
		rbIK, ok := g.kernel.radialBin(r)
		if !ok {
			ctx.BinIK[idx] = NoBin
			continue
		}
		mu := cosineToLOS(iPos, kPos, ctx.LOS)
		basisIK := g.kernel.basis(rbIK, r, mu)

		xiVal := 1.0
		if ctx.XiTable != nil {
			if v, ok := ctx.XiTable.Eval(r); ok {
				xiVal = v
			} else {
				xiVal = 0
			}
		}

		w := ctx.WIJ[idx] * ctx.KParticles.W[ctx.K]
		ctx.BinIK[idx] = rbIK
		ctx.WIJK[idx] = w
		ctx.XiIK[idx] = xiVal
		if ctx.BasisIK != nil {
			ctx.BasisIK[idx] = basisIK
		}

		if ctx.BasisIJ == nil || ctx.BasisIJ[idx] == nil {
			continue
		}
		wXi := w * xiVal
		foldOuter(g.c3, g.mbin, tb, ctx.BinIJ[idx], rbIK, wXi, ctx.P3, ctx.BasisIJ[idx], basisIK)
		if g.jackknife && ctx.RegionOf != nil {
			region := ctx.RegionOf(i)
			if region >= 0 && region < g.nRegions {
				foldOuter(g.c3j[region], g.mbin, tb, ctx.BinIJ[idx], rbIK, wXi, ctx.P3, ctx.BasisIJ[idx], basisIK)
			}
		}
		g.cnt3++
	}
}

func (g *genericAccumulator) Fourth(ctx *FourthCtx) {
	lPos := ctx.LParticles.Pos(ctx.L)
	kPos := ctx.KParticles.Pos(ctx.K)
	tb := totalBins(g.nbin, g.mbin)

	for idx := range ctx.Prim {
		if ctx.BinIJ[idx] == NoBin || ctx.BinIK[idx] == NoBin {
			continue
		}
		r := separation(kPos, lPos)
		rbKL, ok := g.kernel.radialBin(r)
		if !ok {
			continue
		}
		mu := cosineToLOS(kPos, lPos, ctx.LOS)
		basisKL := g.kernel.basis(rbKL, r, mu)

		// w_ijk * w_l * ξ_ik, per spec.md §4.3's fourth() contract: the
		// same ξ(r_ik) Third evaluated is reused here rather than
		// recomputed, since i-k separation doesn't change between draws.
		w := ctx.WIJK[idx] * ctx.LParticles.W[ctx.L] * ctx.XiIK[idx]
		if ctx.BasisIJ == nil || ctx.BasisIJ[idx] == nil || ctx.BasisIK == nil || ctx.BasisIK[idx] == nil {
			continue
		}

		// Fold the outer product of the IJ basis and the KL basis into C4
		// at (BinIJ, bin of k-l), reusing the (i,j),(i,k) partials computed
		// by Second/Third; BinIK only decides whether this primary is
		// skipped.
		foldOuter(g.c4, g.mbin, tb, ctx.BinIJ[idx], rbKL, w, ctx.P4, ctx.BasisIJ[idx], basisKL)
		g.cnt4++

		if g.jackknife && ctx.JKWeightsAB != nil && ctx.JKWeightsCD != nil {
			binIJ := ctx.BinIJ[idx]
			nregions := ctx.JKWeightsAB.NRegions()
			if ctx.JKWeightsCD.NRegions() < nregions {
				nregions = ctx.JKWeightsCD.NRegions()
			}
			for region := 0; region < g.nRegions && region < nregions; region++ {
				wAB := ctx.JKWeightsAB
				wCD := ctx.JKWeightsCD
				weightFn := func(ij, ik int) float64 {
					return wAB.W[region][ij] * wCD.W[region][ik]
				}
				foldOuterWeighted(g.c4j[region], g.mbin, tb, binIJ, rbKL, w, ctx.P4, ctx.BasisIJ[idx], basisKL, weightFn)
			}
		} else if g.jackknife && ctx.RegionOf != nil {
			region := ctx.RegionOf(ctx.Prim[idx])
			if region >= 0 && region < g.nRegions {
				foldOuter(g.c4j[region], g.mbin, tb, ctx.BinIJ[idx], rbKL, w, ctx.P4, ctx.BasisIJ[idx], basisKL)
			}
		}
	}
}

func (g *genericAccumulator) SumInts(other Accumulator) {
	o, ok := other.(*genericAccumulator)
	if !ok || fmt.Sprintf("%T", o.kernel) != fmt.Sprintf("%T", g.kernel) {
		panic(fmt.Errorf("accumulator: SumInts requires a matching variant, got %T", other))
	}
	g.sumFrom(&o.base)
}

func (g *genericAccumulator) Reset() { g.reset() }

func (g *genericAccumulator) Normalize(n NormFactors) { g.normalize(n) }

func (g *genericAccumulator) FrobeniusDifferenceSum(local Accumulator, nLoop int) FrobeniusDeltas {
	o, ok := local.(*genericAccumulator)
	if !ok || fmt.Sprintf("%T", o.kernel) != fmt.Sprintf("%T", g.kernel) {
		panic(fmt.Errorf("accumulator: FrobeniusDifferenceSum requires a matching variant, got %T", local))
	}
	_ = nLoop
	return g.frobeniusDifferenceSum(&o.base)
}
