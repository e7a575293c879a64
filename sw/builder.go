package sw

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/mdclyburn/clockwise/clockerr"
)

// Builder is a PlatformSupport backed by an external board build
// system and a loader tool, invoked over os/exec. It generalizes the
// original Tock-specific adapter (hardcoded to one board directory and
// one loader) into a reusable collaborator: the board directory, build
// command, loader path, and spec file path are all constructor
// parameters.
type Builder struct {
	platform   PlatformID
	boardDir   string
	buildCmd   string // e.g. "/usr/bin/make"
	buildArgs  []string
	loaderPath string
	specPath   string

	mu          sync.Mutex
	loadedAppts map[string]struct{}
}

// NewBuilder creates a Builder for a board whose build system lives at
// boardDir, invoked via buildCmd(buildArgs...), and whose applications
// are installed/removed with the tool at loaderPath. specPath is the
// well-known temporary path the Spec file is written to before an
// instrumented build (spec.md §6's TRACE_SPEC_PATH contract).
func NewBuilder(platform PlatformID, boardDir, buildCmd string, buildArgs []string, loaderPath, specPath string) *Builder {
	return &Builder{
		platform:    platform,
		boardDir:    boardDir,
		buildCmd:    buildCmd,
		buildArgs:   buildArgs,
		loaderPath:  loaderPath,
		specPath:    specPath,
		loadedAppts: make(map[string]struct{}),
	}
}

func (b *Builder) makeCommand(extraArgs ...string) *exec.Cmd {
	args := append(append([]string{"-C", b.boardDir}, b.buildArgs...), extraArgs...)
	cmd := exec.Command(b.buildCmd, args...)
	cmd.Env = os.Environ()
	return cmd
}

// Reconfigure implements PlatformSupport.
func (b *Builder) Reconfigure(tracePoints []string) (*Spec, error) {
	spec := NewSpec(tracePoints)

	var cmd *exec.Cmd
	if len(tracePoints) == 0 {
		cmd = b.makeCommand()
	} else {
		if err := spec.Write(b.specPath); err != nil {
			return nil, clockerr.Wrap(clockerr.IO, "writing trace spec", err)
		}
		cmd = b.makeCommand()
		cmd.Env = append(cmd.Env, "TRACE_SPEC_PATH="+b.specPath, "TRACE_VERBOSE=1")
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, clockerr.Wrap(clockerr.Software, "build failed: "+string(output), err)
	}

	program := exec.Command(b.loaderPath, "program", filepath.Join(b.boardDir))
	program.Env = os.Environ()
	if out, err := program.CombinedOutput(); err != nil {
		return nil, clockerr.Wrap(clockerr.Software, "program failed: "+string(out), err)
	}

	return spec, nil
}

// Load implements PlatformSupport.
func (b *Builder) Load(appID string) error {
	out, err := exec.Command(b.loaderPath, "install", appID).CombinedOutput()
	if err != nil {
		return clockerr.Wrap(clockerr.Software, "load failed: "+string(out), err)
	}
	b.mu.Lock()
	b.loadedAppts[appID] = struct{}{}
	b.mu.Unlock()
	return nil
}

// Unload implements PlatformSupport.
func (b *Builder) Unload(appID string) error {
	b.mu.Lock()
	_, present := b.loadedAppts[appID]
	b.mu.Unlock()
	if !present {
		return nil
	}

	out, err := exec.Command(b.loaderPath, "uninstall", appID).CombinedOutput()
	if err != nil {
		return clockerr.Wrap(clockerr.Software, "unload failed: "+string(out), err)
	}

	b.mu.Lock()
	delete(b.loadedAppts, appID)
	b.mu.Unlock()
	return nil
}

// LoadedSoftware implements PlatformSupport.
func (b *Builder) LoadedSoftware() map[string]struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]struct{}, len(b.loadedAppts))
	for id := range b.loadedAppts {
		out[id] = struct{}{}
	}
	return out
}

// Platform implements PlatformSupport.
func (b *Builder) Platform() PlatformID {
	return b.platform
}

var _ PlatformSupport = (*Builder)(nil)
