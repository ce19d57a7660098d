// Package workspace manages the temporary directory used to stage and
// commit build artifacts before publishing.
package workspace
