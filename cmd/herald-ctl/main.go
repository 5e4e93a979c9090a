package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/spf13/pflag"

	"herald/internal/ipc"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: herald-ctl [--socket PATH] <command>

commands:
  say TEXT...   handle TEXT as if it were spoken
  feed FILE     transcribe an audio file (wav, mp3, ogg) and handle it
  stop          shut the daemon down
`)
}

func main() {
	socket := cli.StringP("socket", "s", "", "Control socket path")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var msg ipc.ControlMessage
	switch args[0] {
	case ipc.CmdSay:
		msg = ipc.ControlMessage{Cmd: ipc.CmdSay, Text: strings.Join(args[1:], " ")}
	case ipc.CmdFeed:
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		// The daemon resolves paths against its own working directory.
		path, err := filepath.Abs(args[1])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		msg = ipc.ControlMessage{Cmd: ipc.CmdFeed, Path: path}
	case ipc.CmdStop:
		msg = ipc.ControlMessage{Cmd: ipc.CmdStop}
	default:
		usage()
		os.Exit(2)
	}

	if err := ipc.Send(ipc.SocketPath(*socket), msg); err != nil {
		fmt.Println("herald-daemon:", err)
		os.Exit(1)
	}
}
