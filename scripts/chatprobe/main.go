// chatprobe is a tiny interactive client for poking a running MortalNet
// server: it registers a nick, prints every incoming line, and sends stdin
// lines as chat (lines starting with '/' are sent raw, e.g. "/Wsomeone").
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/openmortal/mortalnet/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("chatprobe: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:14883", "chat server address")
	nick := flag.String("nick", "probe", "nick to register")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	fmt.Fprint(conn, proto.Format(proto.CmdNick, *nick))

	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			fmt.Println("<", scanner.Text())
		}
		log.Println("connection closed")
		os.Exit(0)
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		line := stdin.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			fmt.Fprint(conn, line[1:]+"\n")
			continue
		}
		fmt.Fprint(conn, proto.Format(proto.CmdChat, line))
	}
	return nil
}
