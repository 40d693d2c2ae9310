// Package main is a command line client for the oxygen server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/CageChen/oxygen/internal/client"
	"github.com/CageChen/oxygen/internal/logging"
	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const usage = `usage: oxygen-client [flags] <command> [id]

commands:
  register          register and print the server reply
  list              list all collections
  collection <id>   show one collection
  file <id>         show one file entry
  content <id>      print the content of a file

flags:
`

func main() {
	fs := flag.NewFlagSet("oxygen-client", flag.ExitOnError)
	server := fs.String("server", "http://localhost:50051", "Server base URL")
	id := fs.String("id", "", "Client id (a new uuid when empty)")
	useRPC := fs.Bool("rpc", false, "Use the WebSocket RPC channel instead of HTTP")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall timeout")
	logLevel := fs.String("log-level", "warn", "Log level (debug/info/warn/error)")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if err := logging.Init(logging.Config{Level: *logLevel, Format: "console", Output: "stderr"}); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logging.Sync() }()

	args := fs.Args()
	if len(args) == 0 {
		args = []string{"register"}
	}

	clientID := *id
	if clientID == "" {
		clientID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var api client.API
	if *useRPC {
		rpc, err := client.DialRPC(ctx, *server, clientID)
		if err != nil {
			logging.Fatal("Failed to connect", zap.String("server", *server), zap.Error(err))
		}
		defer func() { _ = rpc.Close() }()
		api = rpc
	} else {
		api = client.New(client.Config{BaseURL: *server, ClientID: clientID, Timeout: *timeout})
	}

	reg, err := api.Register(ctx)
	if err != nil {
		logging.Fatal("Register failed", zap.Error(err))
	}
	logging.L().Info("Registered", zap.String("client_id", clientID), zap.String("msg", reg.Msg))

	if err := run(ctx, api, reg, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, api client.API, reg protocol.RegResponse, args []string) error {
	cmd := args[0]
	if cmd == "register" {
		return printJSON(reg)
	}
	if cmd == "list" {
		all, err := api.ListAllCollections(ctx)
		if err != nil {
			return err
		}
		return printJSON(all)
	}

	if len(args) < 2 {
		return fmt.Errorf("%s: missing id", cmd)
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid id %q", cmd, args[1])
	}

	switch cmd {
	case "collection":
		col, err := api.GetCollection(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(col)
	case "file":
		f, err := api.GetFile(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(f)
	case "content":
		body, err := api.GetFileContent(ctx, id)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(body)
		return err
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
