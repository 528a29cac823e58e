// Package resolve implements the content-resolution pipeline: SSI-style
// include expansion, template/layout slot inheritance, and the path
// sandboxing both rely on.
//
// A Resolver is configured once per build with the directory roots and
// the dependency tracker. Each content file gets its own Resolution,
// which is strictly sequential and depth-first; concurrency is only
// safe across pages, never within one page's own chain.
//
// Failures at an expansion site (missing target, sandbox escape,
// cycle, depth limit, malformed directive) degrade to an inline HTML
// comment marker plus a collected warning; they never abort the
// surrounding page. Only a failure to read the root content file
// itself is fatal for that page.
package resolve
