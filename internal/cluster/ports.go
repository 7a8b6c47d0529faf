package cluster

// Fixed ports of the workload. They are configured in the base templates and
// must stay in sync with them.
const (
	ControlPort        = 7077
	JobCallbackPort    = 36666
	BlockTransferPort  = 36667
	ControllerUIPort   = 8080
	WorkerUIPort       = 8081
	JobHistoryPort     = 18080
	JobUIPort          = 4040
	MetadataPort       = 80
	CoordinationPort   = 2181
	OSReservationMiB   = 1024
	DefaultExecutorMiB = 1024
	// MaxMemoryMiB bounds the memory budget so it always fits an int64.
	MaxMemoryMiB = 1 << 40
)

// Conventional artifact paths.
const (
	ConfDir            = "/spark/conf"
	EnvFilePath        = ConfDir + "/spark-env.sh"
	DefaultsFilePath   = ConfDir + "/spark-defaults.conf"
	LoggingFilePath    = ConfDir + "/log4j.properties"
	FilesystemFilePath = ConfDir + "/core-site.xml"
	RecoveryFilePath   = ConfDir + "/recovery.conf"
)

// Environment keys set on workload nodes.
const (
	EnvControlURL    = "MASTER"
	EnvWorkerMemory  = "SPARK_WORKER_MEMORY"
	EnvDaemonOptions = "SPARK_DAEMON_JAVA_OPTS"
	EnvJobCommand    = "JOB_COMMAND"
)

// Defaults applied by the configuration loaders.
const (
	DefaultImage  = "keldaio/spark"
	DefaultDomain = "q"
)
