package plugin

import (
	"net/rpc"
	"os/exec"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
	hcplugin "github.com/hashicorp/go-plugin"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"go.uber.org/zap"
)

// nativeHandshake pins the plugin protocol version so an irccd build
// only loads native plugins built against the matching ABI (standard
// hashicorp/go-plugin practice, grounded on every go-plugin-based
// example in the pack).
var nativeHandshake = hcplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "IRCCD_PLUGIN",
	MagicCookieValue: "native",
}

// eventRPC is the net/rpc surface a native plugin binary implements;
// irccd's host process calls it once per handle_* invocation instead
// of calling Go functions directly in-process (spec §4.6 "native
// loader handles dynamically loaded binary plugins").
type eventRPC interface {
	Meta() (Meta, error)
	Load() error
	Unload() error
	Reload() error
	Dispatch(ev ircnet.Event) error
	Declared() (declaredKeys, error)
}

// declaredKeys mirrors the plugin's get_options/get_templates/get_paths
// enumeration (spec §4.6).
type declaredKeys struct {
	Options   []string
	Templates []string
	Paths     []string
}

// eventPlugin adapts eventRPC to hashicorp/go-plugin's net/rpc Plugin
// interface.
type eventPlugin struct {
	Impl eventRPC
}

func (p *eventPlugin) Server(*hcplugin.MuxBroker) (interface{}, error) {
	return &eventRPCServer{impl: p.Impl}, nil
}

func (p *eventPlugin) Client(b *hcplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &eventRPCClient{client: c}, nil
}

type eventRPCServer struct{ impl eventRPC }

func (s *eventRPCServer) Meta(args interface{}, resp *Meta) error {
	m, err := s.impl.Meta()
	*resp = m
	return err
}
func (s *eventRPCServer) Load(args interface{}, resp *interface{}) error  { return s.impl.Load() }
func (s *eventRPCServer) Unload(args interface{}, resp *interface{}) error { return s.impl.Unload() }
func (s *eventRPCServer) Reload(args interface{}, resp *interface{}) error { return s.impl.Reload() }
func (s *eventRPCServer) Dispatch(ev ircnet.Event, resp *interface{}) error {
	return s.impl.Dispatch(ev)
}
func (s *eventRPCServer) Declared(args interface{}, resp *declaredKeys) error {
	d, err := s.impl.Declared()
	*resp = d
	return err
}

type eventRPCClient struct{ client *rpc.Client }

func (c *eventRPCClient) Meta() (Meta, error) {
	var m Meta
	err := c.client.Call("Plugin.Meta", new(interface{}), &m)
	return m, err
}
func (c *eventRPCClient) Load() error {
	return c.client.Call("Plugin.Load", new(interface{}), new(interface{}))
}
func (c *eventRPCClient) Unload() error {
	return c.client.Call("Plugin.Unload", new(interface{}), new(interface{}))
}
func (c *eventRPCClient) Reload() error {
	return c.client.Call("Plugin.Reload", new(interface{}), new(interface{}))
}
func (c *eventRPCClient) Dispatch(ev ircnet.Event) error {
	return c.client.Call("Plugin.Dispatch", ev, new(interface{}))
}
func (c *eventRPCClient) Declared() (declaredKeys, error) {
	var d declaredKeys
	err := c.client.Call("Plugin.Declared", new(interface{}), &d)
	return d, err
}

// NativeLoader opens plugins that are separate binaries speaking the
// eventRPC protocol over hashicorp/go-plugin's net/rpc transport
// (spec §4.6 native loader; the out-of-process model mirrors
// go-plugin's own documented use case of isolating third-party plugin
// code from the host process).
type NativeLoader struct {
	Exts []string // acceptable binary extensions/suffixes, e.g. {"", ".plugin"}

	// Logger receives go-plugin's own subprocess/handshake chatter
	// (normally written straight to the host's stderr) through an
	// hclog.Logger shim, so a native plugin crash shows up alongside
	// the rest of irccd's structured logs instead of on a separate
	// stream. Nil falls back to hclog's own default stderr logger.
	Logger *zap.Logger
}

func (l *NativeLoader) Name() string { return "native" }

func (l *NativeLoader) Find(id string, searchDirs, exts []string) (string, bool) {
	use := exts
	if len(use) == 0 {
		use = l.Exts
	}
	return findInDirs(id, searchDirs, use)
}

// zapHCLogWriter adapts a zap.Logger to the io.Writer hclog.LoggerOptions
// expects for its Output sink, so go-plugin's line-oriented handshake/
// subprocess logging lands in the same structured log as everything else.
type zapHCLogWriter struct{ log *zap.Logger }

func (w zapHCLogWriter) Write(p []byte) (int, error) {
	w.log.Debug(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (l *NativeLoader) Open(id, path string) (Callbacks, Meta, error) {
	clientCfg := &hcplugin.ClientConfig{
		HandshakeConfig: nativeHandshake,
		Plugins: map[string]hcplugin.Plugin{
			"event": &eventPlugin{},
		},
		Cmd: exec.Command(path),
	}
	if l.Logger != nil {
		clientCfg.Logger = hclog.New(&hclog.LoggerOptions{
			Name:   "native-plugin." + id,
			Output: zapHCLogWriter{log: l.Logger},
			Level:  hclog.Debug,
		})
	}
	client := hcplugin.NewClient(clientCfg)

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return Callbacks{}, Meta{}, err
	}
	raw, err := rpcClient.Dispense("event")
	if err != nil {
		client.Kill()
		return Callbacks{}, Meta{}, err
	}
	remote := raw.(eventRPC)

	meta, err := remote.Meta()
	if err != nil {
		client.Kill()
		return Callbacks{}, Meta{}, err
	}

	declared, _ := remote.Declared()
	_ = declared // enumeration is fetched but neither stored nor used

	dispatch := func(kind ircnet.Kind) func(Host, ircnet.Event) error {
		return func(host Host, ev ircnet.Event) error {
			if ev.Kind != kind {
				return nil
			}
			return remote.Dispatch(ev)
		}
	}

	cbs := Callbacks{
		Load:   func(Host) error { return remote.Load() },
		Unload: func(Host) error { err := remote.Unload(); client.Kill(); return err },
		Reload: func(Host) error { return remote.Reload() },
	}
	cbs.Connect = dispatch(ircnet.KindConnect)
	cbs.Disconnect = dispatch(ircnet.KindDisconnect)
	cbs.Invite = dispatch(ircnet.KindInvite)
	cbs.Join = dispatch(ircnet.KindJoin)
	cbs.Kick = dispatch(ircnet.KindKick)
	cbs.Message = dispatch(ircnet.KindMessage)
	cbs.Me = dispatch(ircnet.KindMe)
	cbs.Mode = dispatch(ircnet.KindMode)
	cbs.Names = dispatch(ircnet.KindNames)
	cbs.Nick = dispatch(ircnet.KindNick)
	cbs.Notice = dispatch(ircnet.KindNotice)
	cbs.Part = dispatch(ircnet.KindPart)
	cbs.Topic = dispatch(ircnet.KindTopic)
	cbs.Whois = dispatch(ircnet.KindWhois)
	cbs.Command = dispatch(ircnet.KindCommand)

	return cbs, meta, nil
}
