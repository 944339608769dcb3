// Command shnc is a secure remote shell client built on the shnnet
// framed channel.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	isatty "github.com/mattn/go-isatty"

	"blitter.com/go/shannon/session"
	"blitter.com/go/shannon/shnnet"
	"blitter.com/go/shannon/termmode"
)

var (
	server   string
	username string
	cmdStr   string
	useKCP   bool
)

func main() {
	flag.StringVar(&username, "u", currentUser(), "username")
	flag.StringVar(&cmdStr, "c", "", "command to run (default: interactive shell)")
	flag.BoolVar(&useKCP, "K", false, "use KCP (reliable UDP) transport instead of TCP")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: shnc [opts] host[:port]")
		os.Exit(2)
	}
	server = flag.Arg(0)
	if !strings.Contains(server, ":") {
		server += ":2000"
	}

	kind := shnnet.TransportTCP
	if useKCP {
		kind = shnnet.TransportKCP
	}

	conn, err := shnnet.Dial(kind, server, shnnet.KEXX25519)
	if err != nil {
		log.Fatalf("shnc: dial %s: %v", server, err)
	}
	defer conn.Close()

	interactive := cmdStr == ""
	var oldState *termmode.State
	if interactive && isatty.IsTerminal(os.Stdin.Fd()) {
		oldState, err = termmode.MakeRaw(os.Stdin.Fd())
		if err != nil {
			log.Fatalf("shnc: raw mode: %v", err)
		}
		defer termmode.Restore(os.Stdin.Fd(), oldState)
	}

	ttype := os.Getenv("TERM")
	if ttype == "" {
		ttype = "vt100"
	}
	hello := fmt.Sprintf("%s\t%s\t%s\n", username, ttype, cmdStr)
	if _, err := conn.Write([]byte(hello)); err != nil {
		log.Fatalf("shnc: hello: %v", err)
	}
	if err := conn.FinishSend(); err != nil {
		log.Fatalf("shnc: hello finish: %v", err)
	}

	var password string
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Print("Password: ")
		pw, err := termmode.ReadPassword(os.Stdin.Fd())
		fmt.Println()
		if err != nil {
			log.Fatalf("shnc: password: %v", err)
		}
		password = string(pw)
	} else {
		log.Println("shnc: stdin is not a tty, sending empty password")
	}
	if _, err := conn.Write([]byte(password + "\n")); err != nil {
		log.Fatalf("shnc: send password: %v", err)
	}
	if err := conn.FinishSend(); err != nil {
		log.Fatalf("shnc: password finish: %v", err)
	}

	rec := session.New([]byte("shell"), []byte(username), []byte(server), []byte(ttype), []byte(cmdStr), []byte(password), 0)
	defer rec.ClearAuthCookie()

	ack := make([]byte, 1)
	if _, err := io.ReadFull(conn, ack); err != nil {
		log.Fatalf("shnc: read ack: %v", err)
	}
	if err := conn.FinishRecv(); err != nil {
		log.Fatalf("shnc: auth reply MAC: %v", err)
	}
	if ack[0] == 0 {
		fmt.Fprintln(os.Stderr, "shnc: authentication failed")
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(conn, os.Stdin)
		close(done)
	}()
	_, _ = io.Copy(os.Stdout, conn)
	<-done
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "nobody"
}
