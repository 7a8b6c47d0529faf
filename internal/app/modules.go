package app

import (
	"github.com/vk/clustergrid/internal/registry"
	"github.com/vk/clustergrid/modules/hclplan"
	"github.com/vk/clustergrid/modules/memory"
	"github.com/vk/clustergrid/modules/nats"
	"github.com/vk/clustergrid/modules/print"
	"github.com/vk/clustergrid/modules/socketio"
)

// coreModules is the definitive list of all platforms compiled into the
// clustergrid binary.
var coreModules = []registry.Module{
	&hclplan.Module{},
	&memory.Module{},
	&print.Module{},
	&socketio.Module{},
	&nats.Module{},
}

// defaultPlatform is used when the description has no platform block.
const defaultPlatform = hclplan.Name
