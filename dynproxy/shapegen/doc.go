// Package shapegen generates shapes: small types that implement an interface by forwarding every
// method to a dynproxy.Handler. A registered shape lets a synthesized proxy be used as the
// interface itself instead of through Instance.Call.
//
// For each interface the generated file contains the shape type and an init function calling
// dynproxy.RegisterShape. Packages are loaded with golang.org/x/tools/go/packages; the previously
// generated file is ignored while loading, so a stale shape never blocks regeneration.
package shapegen
