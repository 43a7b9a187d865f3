// Package schema holds the HCL structures a workflow file decodes into.
// Decoding and validation live in internal/config; these types carry only
// the raw file shape.
package schema

// GenerationBlock configures the text-generation provider.
type GenerationBlock struct {
	Provider  string `hcl:"provider,optional"`
	Endpoint  string `hcl:"endpoint,optional"`
	Model     string `hcl:"model,optional"`
	APIKeyEnv string `hcl:"api_key_env,optional"`
}

// EndpointBlock configures a plain HTTP collaborator (sandbox, renderer).
type EndpointBlock struct {
	Endpoint string `hcl:"endpoint"`
}

// PersistenceBlock selects and configures the artifact store backend.
type PersistenceBlock struct {
	Backend string `hcl:"backend,optional"`
	Address string `hcl:"address,optional"`
	Path    string `hcl:"path,optional"`
	TTL     string `hcl:"ttl,optional"`
}

// RealtimeBlock configures the socket.io preview channel.
type RealtimeBlock struct {
	Endpoint  string `hcl:"endpoint"`
	Namespace string `hcl:"namespace,optional"`
}

// TogglesBlock carries the workflow feature toggles. Pointers distinguish an
// explicitly set toggle from an omitted one so defaults can fill the gaps.
type TogglesBlock struct {
	Linting            *bool `hcl:"linting,optional"`
	DependencyAnalysis *bool `hcl:"dependency_analysis,optional"`
	Caching            *bool `hcl:"caching,optional"`
	Realtime           *bool `hcl:"realtime,optional"`
	Generation         *bool `hcl:"generation,optional"`
	PackageResolution  *bool `hcl:"package_resolution,optional"`
}

// StageBlock overrides per-stage execution settings.
type StageBlock struct {
	Name    string `hcl:"name,label"`
	Timeout string `hcl:"timeout,optional"`
}

// Workflow is one `workflow` block from a workflow file.
type Workflow struct {
	Name        string            `hcl:"name,label"`
	Description string            `hcl:"description,optional"`
	Generation  *GenerationBlock  `hcl:"generation,block"`
	Sandbox     *EndpointBlock    `hcl:"sandbox,block"`
	Renderer    *EndpointBlock    `hcl:"renderer,block"`
	Persistence *PersistenceBlock `hcl:"persistence,block"`
	Realtime    *RealtimeBlock    `hcl:"realtime,block"`
	Toggles     *TogglesBlock     `hcl:"toggles,block"`
	Stages      []*StageBlock     `hcl:"stage,block"`
}

// File is the top-level structure of a workflow file.
type File struct {
	Workflows []*Workflow `hcl:"workflow,block"`
}
