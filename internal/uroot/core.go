// SPDX-License-Identifier: MPL-2.0

package uroot

import (
	"context"

	"github.com/u-root/u-root/pkg/core"
	"github.com/u-root/u-root/pkg/core/base64"
	"github.com/u-root/u-root/pkg/core/cat"
	"github.com/u-root/u-root/pkg/core/chmod"
	"github.com/u-root/u-root/pkg/core/cp"
	"github.com/u-root/u-root/pkg/core/ls"
	"github.com/u-root/u-root/pkg/core/mkdir"
	"github.com/u-root/u-root/pkg/core/mv"
	"github.com/u-root/u-root/pkg/core/rm"
	"github.com/u-root/u-root/pkg/core/shasum"
	"github.com/u-root/u-root/pkg/core/touch"
)

// coreCommand adapts a u-root pkg/core command. A fresh instance is built
// per invocation since core commands hold their IO and working directory.
type coreCommand struct {
	name    string
	factory func() core.Command
}

func (c coreCommand) Name() string { return c.name }

func (c coreCommand) Run(ctx context.Context, args []string) error {
	env := EnvFrom(ctx)
	cmd := c.factory()
	cmd.SetIO(env.Stdin, env.Stdout, env.Stderr)
	cmd.SetWorkingDir(env.Dir)
	if env.LookupEnv != nil {
		cmd.SetLookupEnv(env.LookupEnv)
	}
	return commandError(c.name, cmd.RunContext(ctx, args[1:]...))
}

func coreCommands() []Command {
	return []Command{
		coreCommand{"base64", func() core.Command { return base64.New() }},
		coreCommand{"cat", func() core.Command { return cat.New() }},
		coreCommand{"chmod", func() core.Command { return chmod.New() }},
		coreCommand{"cp", func() core.Command { return cp.New() }},
		coreCommand{"ls", func() core.Command { return ls.New() }},
		coreCommand{"mkdir", func() core.Command { return mkdir.New() }},
		coreCommand{"mv", func() core.Command { return mv.New() }},
		coreCommand{"rm", func() core.Command { return rm.New() }},
		coreCommand{"shasum", func() core.Command { return shasum.New() }},
		coreCommand{"touch", func() core.Command { return touch.New() }},
	}
}
