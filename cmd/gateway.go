// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"enginebridge/cli/internal/bridge"
	"enginebridge/cli/internal/bridge/grpcclient"
	"enginebridge/cli/internal/config"
	"enginebridge/cli/internal/runner"
)

// openGateway returns the local gateway, or a remote one when --addr is set.
// Engine log lines go to session either way. The returned func releases
// resources.
func openGateway(cfg config.Config, session *logSession) (bridge.Gateway, func(), error) {
	log := newLogger(cfg)
	if remoteAddr != "" {
		// The server already normalized every line it streams.
		c, err := grpcclient.Dial(remoteAddr,
			grpcclient.WithLogFunc(session.SinkNormalized),
			grpcclient.WithLogger(log),
		)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	}
	r := runner.New(cfg,
		runner.WithSink(session.Sink),
		runner.WithLogger(log),
		// Python buffers stdout when piped, which would hold back progress lines.
		runner.WithEnv("PYTHONUNBUFFERED=1"),
	)
	return bridge.New(r), func() {}, nil
}
