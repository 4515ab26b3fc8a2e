// Package client implements the network client for adrakdb. A Client
// holds one connection; each call sends one request and blocks for
// exactly one response.
package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/heysubinoy/adrakdb/internal/protocol"
	"github.com/heysubinoy/adrakdb/pkg/kv"
)

// Client is a connection to an adrakdb server.
type Client struct {
	conn net.Conn
	bw   *bufio.Writer
	enc  *json.Encoder
	dec  *json.Decoder
}

// Dial connects to the server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	bw := bufio.NewWriter(conn)
	return &Client{
		conn: conn,
		bw:   bw,
		enc:  json.NewEncoder(bw),
		dec:  json.NewDecoder(bufio.NewReader(conn)),
	}, nil
}

// Get retrieves the value for key. Returns false with a nil error when
// the key is absent.
func (c *Client) Get(key string) (string, bool, error) {
	resp, err := c.roundTrip(protocol.Request{Op: protocol.OpGet, Key: key})
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Found, nil
}

// Set stores a key-value pair.
func (c *Client) Set(key, value string) error {
	_, err := c.roundTrip(protocol.Request{Op: protocol.OpSet, Key: key, Value: value})
	return err
}

// Remove deletes key, returning kv.ErrKeyNotFound if it is absent.
func (c *Client) Remove(key string) error {
	_, err := c.roundTrip(protocol.Request{Op: protocol.OpRemove, Key: key})
	return err
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req protocol.Request) (protocol.Response, error) {
	if err := c.enc.Encode(req); err != nil {
		return protocol.Response{}, fmt.Errorf("send request: %w", err)
	}
	if err := c.bw.Flush(); err != nil {
		return protocol.Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp protocol.Response
	if err := c.dec.Decode(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			return protocol.Response{}, errors.New("no response from server")
		}
		return protocol.Response{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != protocol.StatusOK {
		if resp.Kind == protocol.KindNotFound {
			return resp, kv.ErrKeyNotFound
		}
		return resp, fmt.Errorf("server error: %s", resp.Error)
	}
	return resp, nil
}
