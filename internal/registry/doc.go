// Package registry provides the central "glue" for the platform module system.
//
// The Registry maps the platform type named in a description (e.g.
// `platform "socketio" { ... }`) to the compiled Go factory that builds the
// platform, together with the input struct its block body decodes into.
//
// During application startup, the registry is populated and then validated to
// ensure every module's input struct can be decoded from both HCL and YAML,
// preventing a class of configuration errors from surfacing mid-deploy.
package registry
