// Package process isolates TeX subprocesses in their own process group so a
// timeout kills every descendant, not only the direct child.
package process
