// Command chat-client connects to a securechat server, prints messages from
// other clients, and sends whatever is typed at the console.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rbkdev/securechat/chat"
)

func main() {
	var (
		address       = flag.String("address", "localhost:9000", "server address")
		username      = flag.String("username", "", "username to connect with")
		rsaKeyBits    = flag.Int("rsa-bits", 2048, "RSA key size in bits")
		rsaIterations = flag.Int("rsa-iterations", 64, "Fermat primality test rounds per RSA prime")
	)
	flag.Parse()

	name := *username
	if name == "" {
		fmt.Print("Enter username: ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		name = strings.TrimSpace(line)
	}

	client := chat.NewClient(name, *rsaKeyBits, *rsaIterations)
	if err := client.Connect(*address); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Disconnect()

	go receiveLoop(client)

	runConsole(client)
}

func receiveLoop(client *chat.Client) {
	for {
		message, err := client.Recv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "connection lost: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(message)
	}
}

// runConsole reads lines from stdin and sends them, until ":q" (or EOF) is
// entered. A line starting with "::" is sent with the leading colon
// stripped, so a literal message beginning with ":" can still be sent.
func runConsole(client *chat.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()

		if line == ":q" {
			return
		}
		if strings.HasPrefix(line, "::") {
			line = line[1:]
		}

		if err := client.Send(line); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			return
		}
	}
}
