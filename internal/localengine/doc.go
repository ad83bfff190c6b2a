// Package localengine is a file-backed stand-in for the host CAD application.
//
// Model files are TOML. The extension decides the document kind: .ipt is a part,
// .iam an assembly, anything else is opened with KindUnknown. The engine checks
// expressions and converts units but does not evaluate geometry; snapshots are a
// fixed isometric outline.
//
//	[[parameters]]
//	name = "SquarePegSize"
//	expression = "0.25 in"
//	units = "in"
package localengine
