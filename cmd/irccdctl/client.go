package main

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// dialTimeout bounds how long irccdctl waits to reach the control
// transport before giving up (spec §4.8's socket has no notion of a
// connect timeout of its own).
const dialTimeout = 5 * time.Second

// greeting is the server's first line, mirroring internal/transport's
// unexported greeting type: irccdctl only reads it to confirm it's
// talking to irccd, it never gates behavior on the version.
type greeting struct {
	Program string `json:"program"`
	Major   int    `json:"major"`
	Minor   int    `json:"minor"`
	Patch   int    `json:"patch"`
}

// client is a single request/response round trip over the control
// transport's newline-delimited JSON protocol (spec §4.8), grounded on
// bitcanon-ircpush's pkg/irc/client.go dial-then-scan shape.
type client struct {
	conn net.Conn
	sc   *bufio.Scanner
	greet greeting
}

func dial(unixPath, bindAddr string, useTLS, skipVerify bool) (*client, error) {
	network, addr := "unix", unixPath
	if unixPath == "" {
		network, addr = "tcp", bindAddr
	}
	var (
		conn net.Conn
		err  error
	)
	d := net.Dialer{Timeout: dialTimeout}
	if useTLS {
		conn, err = tls.DialWithDialer(&d, network, addr, &tls.Config{InsecureSkipVerify: skipVerify})
	} else {
		conn, err = d.Dial(network, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}

	c := &client{conn: conn, sc: bufio.NewScanner(conn)}
	c.sc.Buffer(make([]byte, 0, 4096), 128*1024)
	if !c.sc.Scan() {
		conn.Close()
		return nil, fmt.Errorf("connection closed before greeting: %w", c.sc.Err())
	}
	if err := json.Unmarshal(c.sc.Bytes(), &c.greet); err != nil {
		conn.Close()
		return nil, fmt.Errorf("malformed greeting: %w", err)
	}
	return c, nil
}

func (c *client) Close() error { return c.conn.Close() }

// request sends one command with its fields merged at the top level
// (mirroring transport.decodeRequest's expectation of a flat
// {"command": ..., ...fields} object) and returns the decoded response
// fields, or an error built from the control protocol's error pair.
func (c *client) request(command string, fields map[string]interface{}) (map[string]interface{}, error) {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["command"] = command

	line, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if _, err := c.conn.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if !c.sc.Scan() {
		if err := c.sc.Err(); err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		return nil, fmt.Errorf("connection closed before a response arrived")
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(c.sc.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if errCode, ok := resp["error"]; ok {
		cat, _ := resp["errorCategory"].(string)
		return nil, fmt.Errorf("%s: error %v (%s)", command, errCode, cat)
	}
	delete(resp, "command")
	return resp, nil
}
