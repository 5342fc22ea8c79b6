// Package analysis characterizes recorded and live universes.
//
//   - [PowerSpectrum] and [DominantPeriod]: periodicity of a sampled series
//     such as kinetic energy over a stored run
//   - [LyapunovExponent]: divergence rate of two nearly identical universes
//
// A positive exponent indicates chaotic motion:
//
//	lambda, err := analysis.LyapunovExponent(ctx, build, 1e-6, cfg)
//	if err == nil && lambda > 0 {
//	    // nearby starts drift apart
//	}
package analysis
