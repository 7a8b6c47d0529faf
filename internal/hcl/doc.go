// Package hcl provides the HCL implementation of the config.Loader interface.
// It is responsible for file parsing, schema-to-model translation and
// CTY-to-Go data binding.
package hcl
