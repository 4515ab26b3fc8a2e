package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/heysubinoy/adrakdb/pkg/client"
	"github.com/heysubinoy/adrakdb/pkg/kv"
)

func main() {
	addr := flag.String("addr", defaultAddr(), "server address (host:port)")
	flag.Usage = printUsage
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "get":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: adrak-cli get <key>")
			os.Exit(1)
		}
		handleGet(*addr, args[1])

	case "set":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: adrak-cli set <key> <value>")
			os.Exit(1)
		}
		handleSet(*addr, args[1], args[2])

	case "rm":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: adrak-cli rm <key>")
			os.Exit(1)
		}
		handleRemove(*addr, args[1])

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func dial(addr string) *client.Client {
	c, err := client.Dial(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adrak-cli: %v\n", err)
		os.Exit(1)
	}
	return c
}

func handleGet(addr, key string) {
	c := dial(addr)
	defer c.Close()

	value, found, err := c.Get(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adrak-cli: %v\n", err)
		os.Exit(1)
	}
	if !found {
		// An absent key is not an error for get.
		fmt.Println("Key not found")
		return
	}
	fmt.Println(value)
}

func handleSet(addr, key, value string) {
	c := dial(addr)
	defer c.Close()

	if err := c.Set(key, value); err != nil {
		fmt.Fprintf(os.Stderr, "adrak-cli: %v\n", err)
		os.Exit(1)
	}
}

func handleRemove(addr, key string) {
	c := dial(addr)
	defer c.Close()

	if err := c.Remove(key); err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			fmt.Fprintln(os.Stderr, "Key not found")
		} else {
			fmt.Fprintf(os.Stderr, "adrak-cli: %v\n", err)
		}
		os.Exit(1)
	}
}

func defaultAddr() string {
	if v := os.Getenv("ADRAK_ADDR"); v != "" {
		return v
	}
	return "127.0.0.1:4000"
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adrak-cli [-addr host:port] get <key>")
	fmt.Println("  adrak-cli [-addr host:port] set <key> <value>")
	fmt.Println("  adrak-cli [-addr host:port] rm <key>")
	fmt.Println("")
	fmt.Println("Environment variables:")
	fmt.Println("  ADRAK_ADDR - server address (default: 127.0.0.1:4000)")
}
