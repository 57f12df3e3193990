// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks over the validation hot paths, used
// to generate the PGO profile:
//   - token counting and reference extraction per document
//   - configuration loading (CUE schema validation)
//   - a full engine run over a generated package
//
// To generate a profile, run:
//
//	go test ./internal/benchmark -run '^$' -bench . -cpuprofile default.pgo
package benchmark
