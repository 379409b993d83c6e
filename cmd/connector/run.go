package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/kbukum/connector/command"
	"github.com/kbukum/connector/connector"
	"github.com/kbukum/connector/httpclient"
	"github.com/kbukum/connector/process"
)

// callReport is one output line.
type callReport struct {
	Target    string `json:"target"`
	OK        bool   `json:"ok"`
	FromCache bool   `json:"from_cache,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
	Body      string `json:"body,omitempty"`
}

// commandBuilder turns a CLI target into a command.
type commandBuilder func(target string) command.Command

func httpTargets(client *httpclient.Client) commandBuilder {
	return func(target string) command.Command { return httpclient.Get(client, target) }
}

func shellTargets(target string) command.Command {
	return process.NewCommand(process.Shell(target))
}

// fetch runs every target concurrently through the pipeline of endpoint and
// writes one JSON line per target, in argument order. It returns the number
// of failed calls.
func fetch(ctx context.Context, conn *connector.Connector, build commandBuilder, endpoint connector.EndpointConfig, targets []string, withBody bool, w io.Writer) (int, error) {
	pending := make([]<-chan connector.Result[string], len(targets))
	for i, t := range targets {
		pending[i] = connector.ExecuteAsync(ctx, conn, connector.Descriptor[string]{
			Endpoint:     endpoint,
			Deserializer: connector.String(),
			Command:      build(t),
		})
	}

	enc := json.NewEncoder(w)
	failed := 0
	for i, ch := range pending {
		res := <-ch
		rep := callReport{Target: targets[i], OK: res.IsSuccess(), FromCache: res.FromCache}
		if res.IsSuccess() {
			rep.Bytes = len(res.Value)
			if withBody {
				rep.Body = res.Value
			}
		} else {
			failed++
			rep.Code = string(res.Code())
			rep.Error = res.Err.Error()
		}
		if err := enc.Encode(rep); err != nil {
			return failed, err
		}
	}
	return failed, nil
}
