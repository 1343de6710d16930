// Package tech builds a typed, immutable technology model from LEF
// technology files.
//
// The model captures what a physical design flow reads out of a process
// kit: routing layers with widths, spacing rules, and parallel-run-length
// spacing tables; cut layers with enclosures and cut spacings; fixed vias
// with per-layer geometry; via generation rules; placement sites; and the
// library header with its units. Layer references inside vias and via
// rules are resolved to handles after the parse, so holders of a
// Technology never chase names.
//
// Read is the entry point:
//
//	res, err := tech.ReadFile(ctx, "tech.lef", tech.Lenient())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range res.Errors {
//	    log.Println(e)
//	}
//	layer, err := res.Tech.Layer("Metal1")
//
// By default the first error of any class fails the read and no
// Technology is returned. The Lenient option instead records recoverable
// errors in Result.Errors and returns the model built from everything
// that did parse. A Technology is read-only after Read returns and safe
// for concurrent use.
//
// Tokenizing and grammar recognition live in the lef package; this
// package only decodes statement arguments into records.
package tech
