package command

import (
	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/transport"
)

func serverHandlers() map[string]func(Deps, transport.Request) transport.Response {
	return map[string]func(Deps, transport.Request) transport.Response{
		"server-list":       handleServerList,
		"server-info":       handleServerInfo,
		"server-connect":    handleServerConnect,
		"server-disconnect": handleServerDisconnect,
		"server-reconnect":  handleServerReconnect,
		"server-join":       handleServerJoin,
		"server-part":       handleServerPart,
		"server-kick":       handleServerKick,
		"server-invite":     handleServerInvite,
		"server-topic":      handleServerTopic,
		"server-message":    handleServerMessage,
		"server-me":         handleServerMe,
		"server-notice":     handleServerNotice,
		"server-mode":       handleServerMode,
		"server-nick":       handleServerNick,
	}
}

func handleServerList(d Deps, req transport.Request) transport.Response {
	return transport.OK(req.Command, map[string]interface{}{"list": d.Servers.List()})
}

func handleServerInfo(d Deps, req transport.Request) transport.Response {
	id, ok := str(req.Fields, "server")
	if !ok || id == "" {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidIdentifier, "missing server"))
	}
	info, ok := d.Servers.Info(id)
	if !ok {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerNotFound, "server %q not found", id))
	}
	return transport.OK(req.Command, map[string]interface{}{
		"hostname": info.Hostname,
		"port":     info.Port,
		"nickname": info.Nickname,
		"username": info.Username,
		"realname": info.Realname,
		"channels": info.Channels,
	})
}

func handleServerConnect(d Deps, req transport.Request) transport.Response {
	id, ok := str(req.Fields, "name")
	if !ok || id == "" {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidIdentifier, "missing name"))
	}
	host, ok := str(req.Fields, "host")
	if !ok || host == "" {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidHostname, "missing host"))
	}
	port := 6667
	if n, ok := number(req.Fields, "port"); ok {
		port = int(n)
	}
	if port < 1 || port > 65535 {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidPort, "invalid port %d", port))
	}

	cfg := ircnet.Config{
		ID:       id,
		Hostname: host,
		Port:     port,
		Options: ircnet.Options{
			TLS:           boolOr(req.Fields, "ssl", false),
			TLSVerify:     boolOr(req.Fields, "sslVerify", true),
			IPv4:          boolOr(req.Fields, "ipv4", true),
			IPv6:          boolOr(req.Fields, "ipv6", false),
			AutoRejoin:    boolOr(req.Fields, "autoRejoin", false),
			JoinInvite:    boolOr(req.Fields, "joinInvite", false),
			AutoReconnect: boolOr(req.Fields, "autoReconnect", true),
		},
		Identity: ircnet.Identity{
			Nickname: strOr(req.Fields, "nickname", "irccd"),
			Username: strOr(req.Fields, "username", "irccd"),
			Realname: strOr(req.Fields, "realname", "irccd"),
			Password: strOr(req.Fields, "password", ""),
		},
		CTCPVersion: strOr(req.Fields, "ctcpVersion", ""),
		CommandChar: strOr(req.Fields, "commandChar", "!"),
	}
	if err := d.Servers.Connect(cfg); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerAlreadyExists)
	}
	return transport.OK(req.Command, nil)
}

func handleServerDisconnect(d Deps, req transport.Request) transport.Response {
	id, _ := str(req.Fields, "server")
	if err := d.Servers.Disconnect(id); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerReconnect(d Deps, req transport.Request) transport.Response {
	id, _ := str(req.Fields, "server")
	if err := d.Servers.Reconnect(id); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func requireServerChannel(req transport.Request) (server, channel string, resp *transport.Response) {
	server, ok := str(req.Fields, "server")
	if !ok || server == "" {
		r := errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidIdentifier, "missing server"))
		return "", "", &r
	}
	channel, ok = str(req.Fields, "channel")
	if !ok || channel == "" {
		r := errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidChannel, "missing channel"))
		return "", "", &r
	}
	return server, channel, nil
}

func handleServerJoin(d Deps, req transport.Request) transport.Response {
	server, channel, errR := requireServerChannel(req)
	if errR != nil {
		return *errR
	}
	password, _ := str(req.Fields, "password")
	if err := d.Servers.Join(server, channel, password); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerPart(d Deps, req transport.Request) transport.Response {
	server, channel, errR := requireServerChannel(req)
	if errR != nil {
		return *errR
	}
	reason, _ := str(req.Fields, "reason")
	if err := d.Servers.Part(server, channel, reason); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerKick(d Deps, req transport.Request) transport.Response {
	server, channel, errR := requireServerChannel(req)
	if errR != nil {
		return *errR
	}
	target, ok := str(req.Fields, "target")
	if !ok || target == "" {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidNickname, "missing target"))
	}
	reason, _ := str(req.Fields, "reason")
	if err := d.Servers.Kick(server, target, channel, reason); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerInvite(d Deps, req transport.Request) transport.Response {
	server, channel, errR := requireServerChannel(req)
	if errR != nil {
		return *errR
	}
	target, ok := str(req.Fields, "target")
	if !ok || target == "" {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidNickname, "missing target"))
	}
	if err := d.Servers.Invite(server, target, channel); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerTopic(d Deps, req transport.Request) transport.Response {
	server, channel, errR := requireServerChannel(req)
	if errR != nil {
		return *errR
	}
	topic, _ := str(req.Fields, "topic")
	if err := d.Servers.Topic(server, channel, topic); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func requireServerTargetMessage(req transport.Request) (server, target, message string, resp *transport.Response) {
	server, ok := str(req.Fields, "server")
	if !ok || server == "" {
		r := errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidIdentifier, "missing server"))
		return "", "", "", &r
	}
	target, ok = str(req.Fields, "target")
	if !ok || target == "" {
		r := errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidChannel, "missing target"))
		return "", "", "", &r
	}
	message, ok = str(req.Fields, "message")
	if !ok {
		r := errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidMessage, "missing message"))
		return "", "", "", &r
	}
	return server, target, message, nil
}

func handleServerMessage(d Deps, req transport.Request) transport.Response {
	server, target, message, errR := requireServerTargetMessage(req)
	if errR != nil {
		return *errR
	}
	if err := d.Servers.Message(server, target, message); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerMe(d Deps, req transport.Request) transport.Response {
	server, target, message, errR := requireServerTargetMessage(req)
	if errR != nil {
		return *errR
	}
	if err := d.Servers.Me(server, target, message); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerNotice(d Deps, req transport.Request) transport.Response {
	server, target, message, errR := requireServerTargetMessage(req)
	if errR != nil {
		return *errR
	}
	if err := d.Servers.Notice(server, target, message); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerMode(d Deps, req transport.Request) transport.Response {
	server, channel, errR := requireServerChannel(req)
	if errR != nil {
		return *errR
	}
	mode, ok := str(req.Fields, "mode")
	if !ok || mode == "" {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidMode, "missing mode"))
	}
	args := stringList(req.Fields, "args")
	if err := d.Servers.Mode(server, channel, mode, args); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

func handleServerNick(d Deps, req transport.Request) transport.Response {
	server, ok := str(req.Fields, "server")
	if !ok || server == "" {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidIdentifier, "missing server"))
	}
	nickname, ok := str(req.Fields, "nickname")
	if !ok || nickname == "" {
		return errResp(req, errcat.New(errcat.Server, errcat.ServerInvalidNickname, "missing nickname"))
	}
	if err := d.Servers.Nick(server, nickname); err != nil {
		return errFromAny(req, err, errcat.Server, errcat.ServerNotFound)
	}
	return transport.OK(req.Command, nil)
}

// errFromAny adapts any error into a Response: a *errcat.Error carries
// its own category/code; any other error falls back to fallbackCode
// under fallbackCat, matching how the original's command handlers
// translate service-layer exceptions into one of the fixed categories.
func errFromAny(req transport.Request, err error, fallbackCat errcat.Category, fallbackCode errcat.Code) transport.Response {
	if ce, ok := err.(*errcat.Error); ok {
		return errResp(req, ce)
	}
	return errResp(req, errcat.Wrap(err, fallbackCat, fallbackCode, "%v", err))
}
