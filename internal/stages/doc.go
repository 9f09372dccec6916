// Package stages implements the shopping pipeline on top of the runtime driver.
//
// Every stage talks to its collaborators through the ports interfaces and
// passes their output through the sanitize package before it reaches the
// shared state. Malformed generative output never fails a stage; it degrades
// to a documented default and is recorded as a fallback. Collaborator errors
// propagate so the caller can retry.
package stages
