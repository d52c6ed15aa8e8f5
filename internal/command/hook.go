package command

import (
	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/transport"
)

func hookHandlers() map[string]func(Deps, transport.Request) transport.Response {
	return map[string]func(Deps, transport.Request) transport.Response{
		"hook-list":   handleHookList,
		"hook-add":    handleHookAdd,
		"hook-remove": handleHookRemove,
	}
}

func handleHookList(d Deps, req transport.Request) transport.Response {
	return transport.OK(req.Command, map[string]interface{}{"list": d.Hooks.List()})
}

func handleHookAdd(d Deps, req transport.Request) transport.Response {
	id, ok := str(req.Fields, "id")
	if !ok || id == "" {
		return errResp(req, errcat.New(errcat.Hook, errcat.HookInvalidIdentifier, "missing id"))
	}
	path, ok := str(req.Fields, "path")
	if !ok || path == "" {
		return errResp(req, errcat.New(errcat.Hook, errcat.HookInvalidPath, "missing path"))
	}
	var timeoutMs int64
	if n, ok := number(req.Fields, "timeout_ms"); ok {
		timeoutMs = int64(n)
	}
	if err := d.Hooks.Add(id, path, timeoutMs); err != nil {
		return errFromAny(req, err, errcat.Hook, errcat.HookAlreadyExists)
	}
	return transport.OK(req.Command, nil)
}

func handleHookRemove(d Deps, req transport.Request) transport.Response {
	id, ok := str(req.Fields, "id")
	if !ok || id == "" {
		return errResp(req, errcat.New(errcat.Hook, errcat.HookInvalidIdentifier, "missing id"))
	}
	if err := d.Hooks.Remove(id); err != nil {
		return errFromAny(req, err, errcat.Hook, errcat.HookNotFound)
	}
	return transport.OK(req.Command, nil)
}
