// Package ice is the connectivity-check side of a hammer session.
//
// An Agent owns named streams, a stream owns components, and each component
// keeps its local and remote candidates plus the pair selected once checks
// converge. The agent behaves like an ice-lite peer: it gathers host
// candidates and answers binding requests from a controlling remote, the
// request carrying USE-CANDIDATE nominates the pair.
package ice
