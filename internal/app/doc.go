// Package app wires the loaders, collaborator resolvers, synthesis pipeline
// and platform modules into the two things the binary does: print a plan and
// deploy it. It is decoupled from any specific entrypoint like a CLI.
package app
