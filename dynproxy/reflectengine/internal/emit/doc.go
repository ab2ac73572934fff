// Package emit is the code-emission backend of the proxy engine.
//
// A synthesized type is a named registration in a Module carrying fields, one constructor,
// and methods whose bodies are op sequences. A body is built with a BodyBuilder
// (labels, branches, actions) and executed by a small interpreter over a Frame.
// Instructions after the exit mark form the cleanup region: errors jump there,
// and it also runs while a panic unwinds through Run.
package emit
