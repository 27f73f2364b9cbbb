// Command chat-server runs a securechat server: it accepts client
// connections, negotiates a session with each, and relays messages between
// all connected clients.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"hermannm.dev/devlog"

	"github.com/rbkdev/securechat/chat"
)

func main() {
	var (
		address       = flag.String("address", "localhost:9000", "address to listen on")
		chatname      = flag.String("chatname", "", "name the server broadcasts under")
		aesKeyBits    = flag.Int("aes-bits", 256, "AES session key size in bits (128, 192 or 256)")
		rsaKeyBits    = flag.Int("rsa-bits", 2048, "RSA key size in bits")
		rsaIterations = flag.Int("rsa-iterations", 64, "Fermat primality test rounds per RSA prime")
		debug         = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	var logLevel slog.LevelVar
	if *debug {
		logLevel.Set(slog.LevelDebug)
	}
	log := slog.New(devlog.NewHandler(os.Stdout, &devlog.Options{Level: &logLevel}))
	slog.SetDefault(log)

	name := *chatname
	if name == "" {
		fmt.Print("Enter chat name: ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		name = strings.TrimSpace(line)
	}

	server, err := chat.NewServer(name, *aesKeyBits, *rsaKeyBits, *rsaIterations, log)
	if err != nil {
		log.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := server.Listen(*address); err != nil {
		log.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := server.Serve(); err != nil {
			log.Error("serve failed", "error", err)
		}
	}()

	fmt.Printf("Ready to accept connections on %s...\n", *address)
	runConsole(server)
}

// runConsole reads lines from stdin and broadcasts them as the server's own
// chatname, until ":q" (or EOF) is entered. A line starting with "::" is
// broadcast with the leading colon stripped, so a literal message beginning
// with ":" can still be sent.
func runConsole(server *chat.Server) {
	defer server.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()

		if line == ":q" {
			return
		}
		if strings.HasPrefix(line, "::") {
			line = line[1:]
		}

		server.Broadcast(line)
	}
}
