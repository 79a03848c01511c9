// Package workspace models the pending/preview directory layout, tree
// scanning with ignore filters, and the resolution of user-entered path
// tokens onto the pending tree.
package workspace
