// Command shnd is a secure remote shell server built on the shnnet
// framed channel.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"sync"
	"syscall"

	"blitter.com/go/goutmp"
	"github.com/kr/pty"

	"blitter.com/go/shannon/auth"
	"blitter.com/go/shannon/logger"
	"blitter.com/go/shannon/session"
	"blitter.com/go/shannon/shnnet"
)

var (
	listenAddr      string
	useSystemPasswd bool
	passwdFile      string
	dbg             bool
)

func main() {
	flag.StringVar(&listenAddr, "l", ":2000", "interface[:port] to listen")
	flag.BoolVar(&useSystemPasswd, "s", false, "authenticate against system shadow file instead of local passwd file")
	flag.StringVar(&passwdFile, "p", "/etc/shn.passwd", "local bcrypt passwd file")
	flag.BoolVar(&dbg, "d", false, "debug logging")
	flag.Parse()

	if dbg {
		w, err := logger.New(logger.LOG_DAEMON|logger.LOG_DEBUG, "shnd")
		if err != nil {
			log.Println("shnd: syslog:", err)
		} else {
			shnnet.Init(w)
		}
	}

	ln, err := shnnet.Listen(shnnet.TransportTCP, listenAddr)
	if err != nil {
		log.Fatalf("shnd: listen: %v", err)
	}
	log.Printf("shnd: listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Println("shnd: accept:", err)
			continue
		}
		go handleConn(conn)
	}
}

func handleConn(conn *shnnet.Conn) {
	defer conn.Close()

	who, ttype, cmd, ok := readHello(conn)
	if !ok {
		log.Println("shnd: malformed hello, dropping connection")
		return
	}

	ctx := auth.NewContext()
	var authed bool
	pass := readLine(conn)
	if useSystemPasswd {
		authed, _ = auth.VerifyShadow(ctx, "/etc/shadow", who, pass)
	} else {
		authed = auth.VerifyLocalPasswd(ctx, who, pass, passwdFile)
	}
	if err := writeAck(conn, authed); err != nil {
		log.Println("shnd: ack write:", err)
		return
	}
	if !authed {
		log.Printf("shnd: auth failed for %q", who)
		return
	}

	sess := session.New([]byte("shell"), []byte(who), []byte(""), []byte(ttype), []byte(cmd), []byte(pass), 0)
	defer sess.ClearAuthCookie()

	status, err := runShellAs(who, ttype, cmd, cmd == "", conn)
	if err != nil {
		log.Println("shnd: session error:", err)
	}
	sess.SetStatus(status)
	log.Printf("shnd: session for %q exited status=%d", who, status)
}

// readHello reads a newline-terminated "user\tterm\tcmd" preamble sent by
// the client before authentication.
func readHello(conn *shnnet.Conn) (who, ttype, cmd string, ok bool) {
	line := readLine(conn)
	var n int
	n, _ = fmt.Sscanf(line, "%s\t%s\t%s", &who, &ttype, &cmd)
	return who, ttype, cmd, n >= 2
}

func readLine(r io.Reader) string {
	br := bufio.NewReader(r)
	line, _ := br.ReadString('\n')
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line
}

func writeAck(conn *shnnet.Conn, ok bool) error {
	b := byte(0)
	if ok {
		b = 1
	}
	if _, err := conn.Write([]byte{b}); err != nil {
		return err
	}
	return conn.FinishSend()
}

// runShellAs spawns an interactive shell or a single command under a pty
// as who, wires stdin/stdout through conn, and accounts the session via
// utmp/lastlog.
func runShellAs(who, ttype, cmd string, interactive bool, conn *shnnet.Conn) (exitStatus uint32, err error) {
	var wg sync.WaitGroup
	u, err := user.Lookup(who)
	if err != nil {
		return 1, err
	}
	uid, _ := strconv.Atoi(u.Uid)
	gid, _ := strconv.Atoi(u.Gid)

	os.Clearenv()
	_ = os.Setenv("HOME", u.HomeDir)
	_ = os.Setenv("TERM", ttype)
	_ = os.Setenv("SHND", "1")

	var c *exec.Cmd
	if interactive {
		c = exec.Command("/bin/bash", "-i", "-l")
	} else {
		c = exec.Command("/bin/bash", "-c", cmd)
	}
	c.Dir = u.HomeDir
	c.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)},
	}

	ptmx, err := pty.Start(c)
	if err != nil {
		return 1, err
	}
	defer ptmx.Close()

	pts, err := ptsName(ptmx)
	if err == nil {
		hname, _ := os.Hostname()
		utmpx := goutmp.Put_utmp(who, pts, hname)
		defer func() { goutmp.Unput_utmp(utmpx) }()
		goutmp.Put_lastlog_entry("shnd", who, pts, hname)
	}

	go func() {
		if _, e := io.Copy(ptmx, conn); e != nil {
			log.Println("shnd: stdin->pty ended:", e)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, e := io.Copy(conn, ptmx); e != nil {
			log.Println("shnd: pty->stdout ended:", e)
		}
	}()

	if werr := c.Wait(); werr != nil {
		if exiterr, ok := werr.(*exec.ExitError); ok {
			if ws, ok := exiterr.Sys().(syscall.WaitStatus); ok {
				exitStatus = uint32(ws.ExitStatus())
			}
		}
	} else if interactive {
		_ = ptmx.Close()
	}
	wg.Wait()
	_ = conn.FinishSend()
	return exitStatus, nil
}

func ptsName(f *os.File) (string, error) {
	return os.Readlink(fmt.Sprintf("/proc/self/fd/%d", f.Fd()))
}
