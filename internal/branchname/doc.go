// Package branchname generates git branch names for dependency updates.
//
// Names are rendered from text/template templates (with sprig functions)
// against the fields of an Update, optionally hashed to a fixed length, and
// finally cleaned into a valid git ref.
package branchname
