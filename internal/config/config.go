package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/dk/stagecraft/internal/ctxlog"
	"github.com/dk/stagecraft/internal/pipeline"
	"github.com/dk/stagecraft/internal/schema"
)

// Defaults applied when a workflow file omits the corresponding block or
// attribute.
const (
	DefaultProvider  = "openai"
	DefaultEndpoint  = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultAPIKeyEnv = "STAGECRAFT_API_KEY"
	DefaultBackend   = "memory"
	DefaultNamespace = "/preview"
)

// Generation is the resolved generation-provider configuration.
type Generation struct {
	Provider  string
	Endpoint  string
	Model     string
	APIKeyEnv string
}

// Persistence is the resolved artifact-store configuration.
type Persistence struct {
	Backend string
	Address string
	Path    string
	TTL     time.Duration
}

// Realtime is the resolved preview-channel configuration. An empty Endpoint
// means the nop publisher is used regardless of the realtime toggle.
type Realtime struct {
	Endpoint  string
	Namespace string
}

// Model is the fully resolved configuration for one workflow.
type Model struct {
	Name             string
	Description      string
	Generation       Generation
	SandboxEndpoint  string
	RendererEndpoint string
	Persistence      Persistence
	Realtime         Realtime
	Toggles          pipeline.Options
	StageTimeouts    map[string]time.Duration
}

// Load parses the workflow file at path and resolves it into a Model,
// applying defaults to every omitted block. The file must contain exactly
// one workflow block.
func Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading workflow configuration.", "path", path)

	file, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	if len(file.Workflows) == 0 {
		return nil, fmt.Errorf("no workflow block found in %s", path)
	}
	if len(file.Workflows) > 1 {
		return nil, fmt.Errorf("%s defines %d workflow blocks, expected exactly one", path, len(file.Workflows))
	}

	model, err := resolve(file.Workflows[0])
	if err != nil {
		return nil, fmt.Errorf("invalid workflow %q: %w", file.Workflows[0].Name, err)
	}
	logger.Debug("Workflow configuration loaded.", "workflow", model.Name)
	return model, nil
}

// LoadToggles re-reads only the feature toggles from the workflow file. The
// config watcher uses this to apply live toggle edits without disturbing the
// rest of the running configuration.
func LoadToggles(ctx context.Context, path string) (pipeline.Options, error) {
	file, err := decodeFile(path)
	if err != nil {
		return pipeline.Options{}, err
	}
	if len(file.Workflows) != 1 {
		return pipeline.Options{}, fmt.Errorf("%s must define exactly one workflow block", path)
	}
	return resolveToggles(file.Workflows[0].Toggles), nil
}

func decodeFile(path string) (*schema.File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var file schema.File
	if diags := gohcl.DecodeBody(hclFile.Body, evalContext(), &file); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}
	return &file, nil
}

// evalContext exposes the process environment as an `env` object so workflow
// attributes can reference env.SOME_VAR.
func evalContext() *hcl.EvalContext {
	envVars := make(map[string]cty.Value)
	for _, entry := range os.Environ() {
		key, value, found := strings.Cut(entry, "=")
		if found && key != "" {
			envVars[key] = cty.StringVal(value)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVars),
		},
	}
}

func resolve(wf *schema.Workflow) (*Model, error) {
	model := &Model{
		Name:        wf.Name,
		Description: wf.Description,
		Generation: Generation{
			Provider:  DefaultProvider,
			Endpoint:  DefaultEndpoint,
			Model:     DefaultModel,
			APIKeyEnv: DefaultAPIKeyEnv,
		},
		Persistence:   Persistence{Backend: DefaultBackend},
		Realtime:      Realtime{Namespace: DefaultNamespace},
		Toggles:       resolveToggles(wf.Toggles),
		StageTimeouts: make(map[string]time.Duration),
	}

	if g := wf.Generation; g != nil {
		if g.Provider != "" {
			model.Generation.Provider = g.Provider
		}
		if g.Endpoint != "" {
			model.Generation.Endpoint = g.Endpoint
		}
		if g.Model != "" {
			model.Generation.Model = g.Model
		}
		if g.APIKeyEnv != "" {
			model.Generation.APIKeyEnv = g.APIKeyEnv
		}
	}
	switch model.Generation.Provider {
	case "openai", "gemini":
	default:
		return nil, fmt.Errorf("unknown generation provider %q (want \"openai\" or \"gemini\")", model.Generation.Provider)
	}

	if wf.Sandbox != nil {
		model.SandboxEndpoint = wf.Sandbox.Endpoint
	}
	if wf.Renderer != nil {
		model.RendererEndpoint = wf.Renderer.Endpoint
	}

	if p := wf.Persistence; p != nil {
		if p.Backend != "" {
			model.Persistence.Backend = p.Backend
		}
		model.Persistence.Address = p.Address
		model.Persistence.Path = p.Path
		if p.TTL != "" {
			ttl, err := time.ParseDuration(p.TTL)
			if err != nil {
				return nil, fmt.Errorf("invalid persistence ttl %q: %w", p.TTL, err)
			}
			model.Persistence.TTL = ttl
		}
	}
	switch model.Persistence.Backend {
	case "memory", "redis", "sqlite":
	default:
		return nil, fmt.Errorf("unknown persistence backend %q (want \"memory\", \"redis\", or \"sqlite\")", model.Persistence.Backend)
	}
	if model.Persistence.Backend == "redis" && model.Persistence.Address == "" {
		return nil, fmt.Errorf("persistence backend \"redis\" requires an address")
	}
	if model.Persistence.Backend == "sqlite" && model.Persistence.Path == "" {
		return nil, fmt.Errorf("persistence backend \"sqlite\" requires a path")
	}

	if r := wf.Realtime; r != nil {
		model.Realtime.Endpoint = r.Endpoint
		if r.Namespace != "" {
			model.Realtime.Namespace = r.Namespace
		}
	}

	for _, s := range wf.Stages {
		if !knownStage(s.Name) {
			return nil, fmt.Errorf("unknown stage %q in stage block (want one of %s)", s.Name, strings.Join(pipeline.StageNames, ", "))
		}
		if s.Timeout == "" {
			continue
		}
		timeout, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout for stage %q: %w", s.Name, err)
		}
		model.StageTimeouts[s.Name] = timeout
	}

	return model, nil
}

// resolveToggles fills an Options from the toggles block, defaulting every
// omitted toggle.
func resolveToggles(t *schema.TogglesBlock) pipeline.Options {
	opts := pipeline.DefaultOptions()
	if t == nil {
		return opts
	}
	if t.Linting != nil {
		opts.Linting = *t.Linting
	}
	if t.DependencyAnalysis != nil {
		opts.DependencyAnalysis = *t.DependencyAnalysis
	}
	if t.Caching != nil {
		opts.Caching = *t.Caching
	}
	if t.Realtime != nil {
		opts.Realtime = *t.Realtime
	}
	if t.Generation != nil {
		opts.Generation = *t.Generation
	}
	if t.PackageResolution != nil {
		opts.PackageResolution = *t.PackageResolution
	}
	return opts
}

func knownStage(name string) bool {
	for _, n := range pipeline.StageNames {
		if n == name {
			return true
		}
	}
	return false
}
