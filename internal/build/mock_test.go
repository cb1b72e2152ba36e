package build

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// fakeDriver records the steps it ran into a shared log.
type fakeDriver struct {
	name         string
	steps        *[]string
	configureErr error
	buildErr     error
}

func (d *fakeDriver) Configure() error {
	*d.steps = append(*d.steps, d.name+":configure")
	return d.configureErr
}

func (d *fakeDriver) Build() error {
	*d.steps = append(*d.steps, d.name+":build")
	return d.buildErr
}

// fakeTools builds an Invoker whose b2 and cmake drivers are fakes.
// fail maps "<invocation>:<step>" to the error that step returns.
type fakeTools struct {
	steps []string
	envs  []Env
	fail  map[string]error
}

func (f *fakeTools) factory(inv Invocation, env Env) (Driver, error) {
	f.envs = append(f.envs, env)
	if err, ok := f.fail[inv.Name+":driver"]; ok {
		return nil, err
	}
	return &fakeDriver{
		name:         inv.Name,
		steps:        &f.steps,
		configureErr: f.fail[inv.Name+":configure"],
		buildErr:     f.fail[inv.Name+":build"],
	}, nil
}

func (f *fakeTools) invoker() *Invoker {
	return NewInvoker(
		WithLogger(log.New(io.Discard)),
		WithDriver(ToolB2, f.factory),
		WithDriver(ToolCMake, f.factory),
	)
}

var errExit = errors.New("exit status 1")

type call struct {
	dir  string
	env  []string
	name string
	args []string
}

type recordRunner struct {
	calls []call
	fail  string // tool name that fails
}

func (r *recordRunner) Run(dir string, env []string, name string, args ...string) error {
	r.calls = append(r.calls, call{dir: dir, env: env, name: name, args: args})
	if name == r.fail {
		return errExit
	}
	return nil
}
