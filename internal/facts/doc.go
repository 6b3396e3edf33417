// Package facts defines the domain types shared by the pipeline stages:
// raw documents extracted from the archive, the ordered fact tree they carry,
// and the flat rows produced from them.
package facts
