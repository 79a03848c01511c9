// Package manifest models the release manifest: the authoritative, ordered
// list of paths approved for publication. File entries name a single file;
// folder entries end with "/" and cover everything beneath them.
package manifest
