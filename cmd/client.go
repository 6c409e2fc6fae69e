package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/config"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

// configFs is where the client looks for daemon.yaml when the address or
// token is not given on the command line.
var configFs afero.Fs = afero.NewOsFs()

// endpoint holds the resolved daemon address and token.
type endpoint struct {
	Addr   string
	Secret string
}

func (e endpoint) httpURL() string { return "http://" + e.Addr + common.RPCPath }

func (e endpoint) wsURL() string { return "ws://" + e.Addr + common.RPCWSPath }

// resolveEndpoint takes the address and token from the global flags (or
// their environment variables) and fills whatever is missing from the
// daemon configuration.
func resolveEndpoint(ctx *cli.Context) (endpoint, error) {
	return completeEndpoint(endpoint{
		Addr:   ctx.GlobalString("rpc"),
		Secret: ctx.GlobalString("secret"),
	})
}

func completeEndpoint(ep endpoint) (endpoint, error) {
	if ep.Addr == "" || ep.Secret == "" {
		dir, err := config.Dir(os.Getenv)
		if err != nil {
			return endpoint{}, err
		}
		cfg, err := config.Load(configFs, dir, os.Getenv)
		if err != nil {
			return endpoint{}, err
		}
		if ep.Addr == "" {
			ep.Addr = cfg.RPC.Listen
		}
		if ep.Secret == "" {
			ep.Secret = cfg.RPC.Secret
		}
	}
	addr, err := dialAddr(ep.Addr)
	if err != nil {
		return endpoint{}, err
	}
	ep.Addr = addr
	return ep, nil
}

// dialAddr turns a listen address into one a client can dial: an empty or
// unspecified host becomes the loopback address.
func dialAddr(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("rpc address %q: %w", addr, err)
	}
	if host == "" {
		host = "127.0.0.1"
	} else if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		if ip.To4() != nil {
			host = "127.0.0.1"
		} else {
			host = "::1"
		}
	}
	return net.JoinHostPort(host, port), nil
}

// bearerClient attaches the token to every request.
type bearerClient struct {
	c     *http.Client
	token string
}

func (b bearerClient) Do(req *http.Request) (*http.Response, error) {
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.c.Do(req)
}

// rpcClient is a JSON-RPC client for the daemon's HTTP endpoint.
type rpcClient struct {
	cli *jrpc2.Client
}

func newRPCClient(ep endpoint) *rpcClient {
	ch := jhttp.NewChannel(ep.httpURL(), &jhttp.ChannelOptions{
		Client: bearerClient{c: &http.Client{Timeout: DEF_CALL_TIMEOUT}, token: ep.Secret},
	})
	return &rpcClient{cli: jrpc2.NewClient(ch, nil)}
}

// dial resolves the endpoint from ctx and returns a client for it.
func dial(ctx *cli.Context) (*rpcClient, error) {
	ep, err := resolveEndpoint(ctx)
	if err != nil {
		return nil, err
	}
	return newRPCClient(ep), nil
}

// call invokes method with params and decodes the result into result,
// which may be nil.
func (c *rpcClient) call(method string, params, result any) error {
	ctx, cancel := context.WithTimeout(context.Background(), DEF_CALL_TIMEOUT)
	defer cancel()
	if result == nil {
		result = &common.EmptyResult{}
	}
	return describe(c.cli.CallResult(ctx, method, params, result))
}

func (c *rpcClient) Close() error {
	return c.cli.Close()
}

// describe replaces JSON-RPC errors by their message, which is what a user
// wants to read.
func describe(err error) error {
	var rerr *jrpc2.Error
	if errors.As(err, &rerr) {
		return errors.New(rerr.Message)
	}
	return err
}
