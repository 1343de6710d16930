// Package lef implements the lexical and grammatical layer of a LEF
// technology file reader.
//
// LEF technology files describe a semiconductor process: routing and cut
// layers, vias, via generation rules, and placement sites. Statements end
// with ';', blocks open with a construct keyword and close with a matching
// "END <name>", and '#' comments run to end of line.
//
// The package is structured as three layers:
//
//   - Lexer: converts a byte stream into tokens incrementally, stripping
//     comments and whitespace. The input is never held in memory whole.
//   - Parser: a stack machine over open-construct frames. It recognizes
//     block structure, validates END name agreement, and emits one
//     Begin/End event pair per construct plus one Statement event per
//     property statement, in file order.
//   - Dispatcher: routes events to handlers registered per construct
//     kind. Kinds without a handler are parsed but not materialized.
//
// Constructs the format defines but this reader does not model
// (PROPERTYDEFINITIONS, NONDEFAULTRULE, MACRO, BEGINEXT, fixed via rules,
// antenna statements) are tracked structurally and reported through
// Parser.Diagnostics, never dropped silently.
//
// Usage:
//
//	p := lef.NewParser(file)
//	d := lef.NewDispatcher()
//	d.Register(lef.KindLayer, myLayerHandler)
//	if err := p.Parse(ctx, d); err != nil {
//	    log.Fatal(err)
//	}
//
// Model construction on top of these events lives in the tech package.
package lef
