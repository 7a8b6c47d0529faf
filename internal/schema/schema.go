// Package schema holds the HCL decoding targets of a cluster description file.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File represents the top-level structure of a description file.
type File struct {
	Clusters  []*Cluster  `hcl:"cluster,block"`
	Platforms []*Platform `hcl:"platform,block"`
	Remain    hcl.Body    `hcl:",remain"`
}

// Cluster represents a `cluster` block. Pointer fields distinguish an
// omitted attribute from its zero value so loader defaults survive.
type Cluster struct {
	Name          string         `hcl:"name,label"`
	Image         *string        `hcl:"image,optional"`
	Domain        *string        `hcl:"domain,optional"`
	Controllers   *int           `hcl:"controllers,optional"`
	Workers       int            `hcl:"workers,optional"`
	JobRunner     *bool          `hcl:"job_runner,optional"`
	ExposeUI      bool           `hcl:"expose_ui,optional"`
	PublicEgress  *bool          `hcl:"public_egress,optional"`
	MetadataPorts []int          `hcl:"metadata_ports,optional"`
	Env           hcl.Expression `hcl:"env,optional"`
	TemplatesDir  *string        `hcl:"templates_dir,optional"`

	Memory       *Memory       `hcl:"memory,block"`
	Coordination *Coordination `hcl:"coordination,block"`
	Storage      *Storage      `hcl:"storage,block"`
	Job          *Job          `hcl:"job,block"`
}

// Memory represents the `memory` block: an explicit amount or a machine.
type Memory struct {
	MiB     *float64 `hcl:"mib,optional"`
	Machine *Machine `hcl:"machine,block"`
}

// Machine represents the `machine` block inside `memory`.
type Machine struct {
	Provider     *string  `hcl:"provider,optional"`
	InstanceType *string  `hcl:"instance_type,optional"`
	RAMGiB       *float64 `hcl:"ram_gib,optional"`
}

// Coordination represents the `coordination` block. Peers may be listed
// statically or discovered through a nested `consul` block.
type Coordination struct {
	Peers  []string `hcl:"peers,optional"`
	Port   *int     `hcl:"port,optional"`
	Consul *Consul  `hcl:"consul,block"`
}

// Consul represents the `consul` block inside `coordination`.
type Consul struct {
	Address    *string `hcl:"address,optional"`
	Datacenter *string `hcl:"datacenter,optional"`
	Service    string  `hcl:"service"`
	Tag        *string `hcl:"tag,optional"`
}

// Storage represents the `storage` block.
type Storage struct {
	URI   string `hcl:"uri"`
	Ports []int  `hcl:"ports,optional"`
}

// Job represents the `job` block.
type Job struct {
	Command string `hcl:"command"`
}

// Platform represents a `platform` block. Its body is decoded later into
// the input of the selected platform module.
type Platform struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}
