package yamlcfg

import "gopkg.in/yaml.v3"

type document struct {
	Cluster  *clusterDoc  `yaml:"cluster"`
	Platform *platformDoc `yaml:"platform"`
}

type clusterDoc struct {
	Name          string            `yaml:"name"`
	Image         *string           `yaml:"image"`
	Domain        *string           `yaml:"domain"`
	Controllers   *int              `yaml:"controllers"`
	Workers       int               `yaml:"workers"`
	JobRunner     *bool             `yaml:"job_runner"`
	ExposeUI      bool              `yaml:"expose_ui"`
	PublicEgress  *bool             `yaml:"public_egress"`
	MetadataPorts []int             `yaml:"metadata_ports"`
	Env           map[string]string `yaml:"env"`
	TemplatesDir  *string           `yaml:"templates_dir"`
	Memory        *memoryDoc        `yaml:"memory"`
	Coordination  *coordinationDoc  `yaml:"coordination"`
	Storage       *storageDoc       `yaml:"storage"`
	Job           *jobDoc           `yaml:"job"`
}

type memoryDoc struct {
	MiB     *float64    `yaml:"mib"`
	Machine *machineDoc `yaml:"machine"`
}

type machineDoc struct {
	Provider     string  `yaml:"provider"`
	InstanceType string  `yaml:"instance_type"`
	RAMGiB       float64 `yaml:"ram_gib"`
}

type coordinationDoc struct {
	Peers  []string   `yaml:"peers"`
	Port   *int       `yaml:"port"`
	Consul *consulDoc `yaml:"consul"`
}

type consulDoc struct {
	Address    string `yaml:"address"`
	Datacenter string `yaml:"datacenter"`
	Service    string `yaml:"service"`
	Tag        string `yaml:"tag"`
}

type storageDoc struct {
	URI   string `yaml:"uri"`
	Ports []int  `yaml:"ports"`
}

type jobDoc struct {
	Command string `yaml:"command"`
}

type platformDoc struct {
	Type   string    `yaml:"type"`
	Config yaml.Node `yaml:"config"`
}
